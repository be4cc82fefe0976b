package binarycache

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var digitRunRE = regexp.MustCompile(`[0-9]+`)

// FormatVersionForFeedRef normalizes a raw port version string into the
// NuGet feed reference's version-abi suffix (§6, §8 scenario 1): strip a
// leading "v", take up to the first three runs of digits found anywhere
// in the string (padding missing ones with zero, and falling back to
// "0.0.0" entirely when no digits appear at all), then append
// "-vcpkg<abi>".
func FormatVersionForFeedRef(rawVersion, abi string) string {
	return normalizeNumericTriplet(strings.TrimPrefix(rawVersion, "v")) + "-vcpkg" + abi
}

func normalizeNumericTriplet(v string) string {
	runs := digitRunRE.FindAllString(v, 3)
	parts := [3]string{"0", "0", "0"}
	for i, r := range runs {
		n, err := strconv.Atoi(r)
		if err != nil {
			continue
		}
		parts[i] = strconv.Itoa(n)
	}
	return parts[0] + "." + parts[1] + "." + parts[2]
}

// FeedRefFilename builds the full NuGet package filename for a package's
// binary-cache entry (§6): "<name>_<triplet>.<ver>-vcpkg<abi>.nupkg".
func FeedRefFilename(name, triplet, rawVersion, abi string) string {
	return fmt.Sprintf("%s_%s.%s.nupkg", name, triplet, FormatVersionForFeedRef(rawVersion, abi))
}
