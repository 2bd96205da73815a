package textutil

// Truncate returns s unchanged when it fits within maxLen bytes. Otherwise it
// cuts at maxLen, backing up so a multi-byte UTF-8 sequence is never split,
// and appends suffix.
func Truncate(s string, maxLen int, suffix string) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && s[cut]>>6 == 0b10 {
		cut--
	}
	return s[:cut] + suffix
}
