package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneNormalizer formats phone numbers as E.164, trying each region in
// order for numbers written without an international prefix.
type PhoneNormalizer struct {
	regions []string
}

func NewPhoneNormalizer(regions []string) *PhoneNormalizer {
	if len(regions) == 0 {
		regions = []string{"US"}
	}
	return &PhoneNormalizer{regions: regions}
}

func (n *PhoneNormalizer) Normalize(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range n.regions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}
