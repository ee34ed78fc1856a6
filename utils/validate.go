package utils

import (
	"regexp"
)

var addressRe = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

func IsValidAddress(v string) bool {
	return addressRe.MatchString(v)
}
