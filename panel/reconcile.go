package panel

import (
	"strconv"
	"strings"
)

// Action is the mutation a selected version implies relative to the
// installed version, shown as the detail panel's button label.
type Action int

const (
	ActionInstall Action = iota
	ActionUpdate
	ActionDowngrade
)

// String returns the button label.
func (a Action) String() string {
	switch a {
	case ActionUpdate:
		return "Update"
	case ActionDowngrade:
		return "Downgrade"
	default:
		return "Install"
	}
}

// pickVersion decides which version to select when a fresh newest-first
// list arrives for the current selection.
//
// Installed view: prefer the installed package's resolved version, then
// its declared version, when present in the list; otherwise the newest
// entry. The fallback covers an installed prerelease hidden by the
// prerelease filter.
//
// Browse and updates views: track the newest entry unless the user had
// deviated from latest (their previous pick was not the previous list's
// head). A deviation survives only while the picked version is still in
// the list; once pruned, selection snaps back to newest. This keeps an
// intentional downgrade choice intact without freezing selection on
// packages the user never touched.
func pickVersion(view Tab, installedVersion, declaredVersion string, prevList []string, prevSelected string, newList []string) string {
	if len(newList) == 0 {
		return ""
	}

	if view == TabInstalled {
		if installedVersion != "" && containsVersion(newList, installedVersion) {
			return installedVersion
		}
		if declaredVersion != "" && containsVersion(newList, declaredVersion) {
			return declaredVersion
		}
		return newList[0]
	}

	deviated := len(prevList) > 0 && prevSelected != "" && !strings.EqualFold(prevSelected, prevList[0])
	if !deviated {
		return newList[0]
	}
	if containsVersion(newList, prevSelected) {
		return prevSelected
	}
	return newList[0]
}

// resolveAction derives the button label by comparing the positions of
// the selected and installed versions in the newest-first list. When
// either is absent (a prerelease filtered out of the list, say), a
// structural numeric comparison decides instead.
func resolveAction(selected, installed string, list []string) Action {
	if installed == "" {
		return ActionInstall
	}

	selIdx := indexOfVersion(list, selected)
	instIdx := indexOfVersion(list, installed)
	if selIdx >= 0 && instIdx >= 0 {
		if selIdx > instIdx {
			return ActionDowngrade
		}
		return ActionUpdate
	}

	if compareNumeric(selected, installed) < 0 {
		return ActionDowngrade
	}
	return ActionUpdate
}

// compareNumeric compares two version strings by their numeric base:
// anything from the first '-' on is discarded, the rest is split on '.'
// and compared segment-wise as integers with missing segments as zero.
// Returns -1, 0, or 1. Equal bases rank equal even if the prerelease
// suffixes differ.
func compareNumeric(a, b string) int {
	as := numericSegments(a)
	bs := numericSegments(b)

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			if av > bv {
				return 1
			}
			return -1
		}
	}
	return 0
}

func numericSegments(v string) []int {
	base, _, _ := strings.Cut(v, "-")
	parts := strings.Split(base, ".")
	segments := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			n = 0
		}
		segments = append(segments, n)
	}
	return segments
}

func containsVersion(list []string, v string) bool {
	return indexOfVersion(list, v) >= 0
}

func indexOfVersion(list []string, v string) int {
	for i, entry := range list {
		if strings.EqualFold(entry, v) {
			return i
		}
	}
	return -1
}
