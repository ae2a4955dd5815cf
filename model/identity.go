package model

import "strings"

// ParseUserInfo extracts a username from the chat-platform identity string,
// e.g. "@alice (ID: 123456789)" -> "alice". Falls back to the first token.
func ParseUserInfo(userInfo string) string {
	userInfo = strings.TrimSpace(userInfo)
	if userInfo == "" {
		return "Unknown User"
	}
	first := strings.Fields(userInfo)[0]
	if strings.Contains(userInfo, "@") {
		return strings.ReplaceAll(first, "@", "")
	}
	return first
}
