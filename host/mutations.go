package host

import (
	"context"
	"fmt"

	"github.com/willibrandon/nupanel/observability"
)

func (h *Host) install(ctx context.Context, r InstallRequest) Response {
	ok, msg := h.upsert(ctx, "install", r.ProjectPath, r.PackageID, r.Version)
	return InstallResponse{Success: ok, ProjectPath: r.ProjectPath, PackageID: r.PackageID, Message: msg}
}

func (h *Host) update(ctx context.Context, r UpdateRequest) Response {
	ok, msg := h.upsert(ctx, "update", r.ProjectPath, r.PackageID, r.Version)
	return UpdateResponse{Success: ok, ProjectPath: r.ProjectPath, PackageID: r.PackageID, Message: msg}
}

// upsert writes a package reference at the given version, resolving the
// latest stable version when none is given. Under central package
// management the version lands in Directory.Packages.props and the project
// keeps a versionless reference.
func (h *Host) upsert(ctx context.Context, op, projectPath, packageID, ver string) (bool, string) {
	ctx, span := observability.StartMutationSpan(ctx, op, projectPath, packageID)
	defer span.End()

	st, err := h.loadProjectState(projectPath)
	if err != nil {
		observability.EndSpanWithError(span, err)
		return false, err.Error()
	}

	if ver == "" {
		latest, err := h.mergedVersions(ctx, packageID, "", false, 1)
		if err != nil {
			observability.EndSpanWithError(span, err)
			return false, fmt.Sprintf("resolve latest version of %s: %v", packageID, err)
		}
		if len(latest) == 0 {
			return false, fmt.Sprintf("no versions of %s found on any source", packageID)
		}
		ver = latest[0]
	}

	if st.props != nil {
		if _, err := st.props.AddOrUpdatePackageVersion(packageID, ver); err != nil {
			observability.EndSpanWithError(span, err)
			return false, err.Error()
		}
		if _, err := st.proj.AddOrUpdatePackageReference(packageID, ""); err != nil {
			observability.EndSpanWithError(span, err)
			return false, err.Error()
		}
		if err := st.props.Save(); err != nil {
			observability.EndSpanWithError(span, err)
			return false, fmt.Sprintf("save Directory.Packages.props: %v", err)
		}
	} else {
		if _, err := st.proj.AddOrUpdatePackageReference(packageID, ver); err != nil {
			observability.EndSpanWithError(span, err)
			return false, err.Error()
		}
	}

	if err := st.proj.Save(); err != nil {
		observability.EndSpanWithError(span, err)
		return false, fmt.Sprintf("save project: %v", err)
	}

	h.logger.InfoContext(ctx, "Wrote {PackageID} {Version} to {Project}", packageID, ver, st.proj.Path)
	verb := "Installed"
	if op == "update" {
		verb = "Updated"
	}
	return true, fmt.Sprintf("%s %s %s", verb, packageID, ver)
}

// remove deletes the package reference from the project file. Central
// version entries stay in Directory.Packages.props; other projects sharing
// the file may still reference them.
func (h *Host) remove(ctx context.Context, r RemoveRequest) Response {
	ctx, span := observability.StartMutationSpan(ctx, "remove", r.ProjectPath, r.PackageID)
	defer span.End()

	fail := func(msg string) RemoveResponse {
		return RemoveResponse{Success: false, ProjectPath: r.ProjectPath, PackageID: r.PackageID, Message: msg}
	}

	st, err := h.loadProjectState(r.ProjectPath)
	if err != nil {
		observability.EndSpanWithError(span, err)
		return fail(err.Error())
	}

	if !st.proj.RemovePackageReference(r.PackageID) {
		return fail(fmt.Sprintf("%s is not installed", r.PackageID))
	}
	if err := st.proj.Save(); err != nil {
		observability.EndSpanWithError(span, err)
		return fail(fmt.Sprintf("save project: %v", err))
	}

	h.logger.InfoContext(ctx, "Removed {PackageID} from {Project}", r.PackageID, st.proj.Path)
	return RemoveResponse{
		Success:     true,
		ProjectPath: r.ProjectPath,
		PackageID:   r.PackageID,
		Message:     fmt.Sprintf("Removed %s", r.PackageID),
	}
}
