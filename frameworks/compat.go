package frameworks

// IsCompatible reports whether a package group targeting this framework
// can be consumed by a project targeting target.
//
//	netstandard2.0 → net8.0    true
//	net48          → net8.0    false
func (fw *NuGetFramework) IsCompatible(target *NuGetFramework) bool {
	if fw == nil || target == nil {
		return false
	}
	if fw.Framework == target.Framework && fw.Version.Compare(target.Version) == 0 {
		return true
	}

	switch fw.Framework {
	case netStandard:
		return netStandardSupports(fw.Version, target)
	case netCoreApp, netFramework:
		// Within a family, an older group serves a newer project.
		return fw.Framework == target.Framework && fw.Version.Compare(target.Version) <= 0
	}
	return false
}

// netStandardSupports answers whether a .NET Standard version is usable
// from the target, via the bridge tables for the cross-family cases.
func netStandardSupports(ns FrameworkVersion, target *NuGetFramework) bool {
	key := versionKey{ns.Major, ns.Minor}
	switch target.Framework {
	case netFramework:
		// 2.1 has no entry: no .NET Framework implements it.
		min, ok := NetStandardCompatibilityTable[key]
		return ok && target.Version.Compare(min) >= 0
	case netCoreApp:
		min, ok := NetStandardToCoreAppTable[key]
		return ok && target.Version.Compare(min) >= 0
	case netStandard:
		return ns.Compare(target.Version) <= 0
	}
	return false
}
