// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "regexp"

var (
	recruitingRe    = regexp.MustCompile(`(?i)recruiting`)
	notRecruitingRe = regexp.MustCompile(`(?i)not\s+[\w\s]*\s*recruiting`)
)

// classifyStatus maps a raw recruitment status to a display tone. The
// "not recruiting" check runs first because those statuses also contain
// the word "recruiting".
func classifyStatus(status string) StatusTone {
	switch {
	case status == "":
		return ToneOther
	case notRecruitingRe.MatchString(status):
		return ToneNotRecruiting
	case recruitingRe.MatchString(status):
		return ToneRecruiting
	default:
		return ToneOther
	}
}
