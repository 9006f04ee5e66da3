package frameworks

// GetNearest picks the framework from available that best serves the
// target. An exact match always wins; otherwise same-family groups and
// .NET Standard groups compete on score, where .NET Standard can
// outrank an old same-family group on classic .NET Framework targets.
// Returns nil when nothing is compatible.
func GetNearest(target *NuGetFramework, available []*NuGetFramework) *NuGetFramework {
	if target == nil {
		return nil
	}

	var best *NuGetFramework
	bestScore := 0
	for _, fw := range available {
		if !fw.IsCompatible(target) {
			continue
		}
		if s := matchScore(fw, target); best == nil || s > bestScore {
			best, bestScore = fw, s
		}
	}
	return best
}

// matchScore ranks a compatible framework against the target. Ties keep
// the earlier group, so scores only need to separate the bands: exact
// match, same family, .NET Standard, everything else.
func matchScore(fw, target *NuGetFramework) int {
	if fw.Framework == target.Framework {
		if fw.Version.Compare(target.Version) == 0 {
			return 1000
		}
		// A compatible same-family group is always older than the
		// target. Classic .NET Framework ranks those low enough that a
		// late .NET Standard group can overtake them.
		if target.Framework == netFramework {
			return 850
		}
		return 890
	}

	if fw.Framework == netStandard {
		base := 700
		if target.Framework == netFramework {
			base = 850
		}
		return base + fw.Version.Major*20 + fw.Version.Minor
	}

	return GetFrameworkPrecedence(fw.Framework) * 10
}
