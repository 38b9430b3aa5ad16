package service

import (
	"strconv"
	"strings"
	"time"

	"enroll/pkg/email"
)

// Orders for an email without a registration are tagged "pix-<local part>".
const anonymousPrefix = "pix-"

// referenceID tags an order with the registrant it pays for, so the webhook
// can resolve the registrant without relying on the customer email.
func referenceID(registrantID, addr string, now time.Time) string {
	if registrantID == "" {
		registrantID = anonymousPrefix + email.LocalPart(addr, 20)
	}
	return registrantID + "." + strconv.FormatInt(now.UnixMilli(), 10)
}

// registrantIDFrom recovers the registrant id from a reference id. Anonymous
// and foreign reference formats yield "".
func registrantIDFrom(ref string) string {
	i := strings.LastIndex(ref, ".")
	if i <= 0 {
		return ""
	}
	if _, err := strconv.ParseInt(ref[i+1:], 10, 64); err != nil {
		return ""
	}
	id := ref[:i]
	if strings.HasPrefix(id, anonymousPrefix) {
		return ""
	}
	return id
}
