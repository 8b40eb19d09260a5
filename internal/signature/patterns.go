package signature

import "regexp"

// indicators match lines that commonly appear in a signature block. Each
// entry is tested against a trimmed line no longer than maxPatternLineLen.
var indicators = []*regexp.Regexp{
	// job titles
	regexp.MustCompile(`(?i)\b(ceo|cto|cfo|coo|founder|co-founder|manager|director|engineer|developer|analyst|consultant|president|officer|chief|lead|intern)\b`),
	// company suffixes
	regexp.MustCompile(`(?i)\b(inc\.|llc\.?|ltd\.|corp\.|company|corporation|group|plc|gmbh)(\W|$)`),
	// contact methods
	regexp.MustCompile(`(?i)\b(phone|mobile|cell|tel|email|e-mail|fax|www|linkedin|twitter|facebook|skype|contact|address|web)\b`),
	// legal disclaimers
	regexp.MustCompile(`(?i)\b(disclaimer|confidential|privileged|intended recipient|please consider the environment)\b`),
	regexp.MustCompile(`@`),
	regexp.MustCompile(`(?i)https?://`),
}

// valediction matches a closing line such as "Best," or "Kind regards".
var valediction = regexp.MustCompile(`(?i)^(best|best regards|kind regards|warm regards|regards|cheers|thanks|thank you|many thanks|sincerely|yours|yours truly|yours sincerely|all the best|br)[,.!]?$`)

func looksLikeSignature(line string) bool {
	for _, re := range indicators {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
