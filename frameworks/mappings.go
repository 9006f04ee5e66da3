package frameworks

// Cross-family bridge tables. The entries restate the support matrix
// published in NuGet.Client's DefaultFrameworkMappings.cs; the numbers
// are platform facts, not tunables.

// versionKey indexes a bridge table by major.minor.
type versionKey struct {
	Major int
	Minor int
}

// NetStandardCompatibilityTable maps a .NET Standard version to the
// lowest .NET Framework version that implements it.
var NetStandardCompatibilityTable = map[versionKey]FrameworkVersion{
	{1, 0}: {4, 5, 0, 0},
	{1, 1}: {4, 5, 0, 0},
	{1, 2}: {4, 5, 1, 0},
	{1, 3}: {4, 6, 0, 0},
	{1, 4}: {4, 6, 1, 0},
	{1, 5}: {4, 6, 1, 0},
	{1, 6}: {4, 6, 1, 0},
	{2, 0}: {4, 6, 1, 0},
	// 2.1 has no entry: no .NET Framework version implements it.
}

// NetStandardToCoreAppTable maps a .NET Standard version to the lowest
// .NETCoreApp version that implements it.
var NetStandardToCoreAppTable = map[versionKey]FrameworkVersion{
	{1, 0}: {1, 0, 0, 0},
	{1, 1}: {1, 0, 0, 0},
	{1, 2}: {1, 0, 0, 0},
	{1, 3}: {1, 0, 0, 0},
	{1, 4}: {1, 0, 0, 0},
	{1, 5}: {1, 0, 0, 0},
	{1, 6}: {1, 0, 0, 0},
	{1, 7}: {1, 1, 0, 0},
	{2, 0}: {2, 0, 0, 0},
	{2, 1}: {3, 0, 0, 0}, // netstandard2.1 needs netcoreapp3.0
}

// FrameworkPrecedence orders the families for scoring when no better
// signal applies; later entries rank higher.
var FrameworkPrecedence = []string{
	netStandard,
	netCoreApp,
	netFramework,
}

// GetFrameworkPrecedence returns a family's position in
// FrameworkPrecedence, or -1 for a family it does not list.
func GetFrameworkPrecedence(framework string) int {
	for i, fw := range FrameworkPrecedence {
		if fw == framework {
			return i
		}
	}
	return -1
}
