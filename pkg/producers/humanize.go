package producers

import "strconv"

// Humanize formats a byte count with a binary unit letter, truncating:
// 1536 is "1K", 7.9 GiB is "7G". Counts under 1 KiB have no unit.
func Humanize(n uint64) string {
	const units = "KMGTPE"
	if n < 1024 {
		return strconv.FormatUint(n, 10)
	}
	i := -1
	for n >= 1024 && i < len(units)-1 {
		n /= 1024
		i++
	}
	return strconv.FormatUint(n, 10) + units[i:i+1]
}
