// Package vcard renders a business card as a vCard 3.0 text blob, the wire
// contract scanned by third-party contact-import tools.
package vcard

import (
	"fmt"
	"strings"

	"dvcard/internal/card"
)

// Generate produces the vCard 3.0 text for a card. It is total: any
// combination of field values, including an all-empty card, yields a valid
// blob. Field values are inserted verbatim; vCard-reserved characters are
// not escaped, matching the output existing scanners were tested against.
func Generate(c card.Card) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCARD\n")
	b.WriteString("VERSION:3.0\n")

	// Structured name: family;given with middle name, prefix and suffix
	// always empty. Keeping family and given apart stops import tools from
	// conflating the whole name into one field.
	fmt.Fprintf(&b, "N:%s;%s;;;\n", c.FamilyName, c.GivenName)
	fmt.Fprintf(&b, "FN:%s\n", c.FullName())

	if c.Position != "" || c.Company != "" {
		fmt.Fprintf(&b, "ORG:%s\n", c.Company)
		if c.Position != "" {
			fmt.Fprintf(&b, "TITLE:%s\n", c.Position)
		}
	}

	if c.Street != "" || c.City != "" || c.PostalCode != "" || c.Country != "" {
		fmt.Fprintf(&b, "ADR;TYPE=%s:;;%s;%s;;%s;%s\n",
			typeToken(c.IsPrivate), c.Street, c.City, c.PostalCode, c.Country)
	}

	if c.Phone != "" {
		fmt.Fprintf(&b, "TEL;TYPE=%s:%s\n", typeToken(c.IsPrivate), c.Phone)
	}
	if c.Email != "" {
		fmt.Fprintf(&b, "EMAIL;TYPE=%s:%s\n", typeToken(c.IsPrivate), c.Email)
	}
	if c.Website != "" {
		fmt.Fprintf(&b, "URL:%s\n", c.Website)
	}

	b.WriteString("END:VCARD")
	return b.String()
}

// typeToken tags contact channels as personal or professional.
func typeToken(private bool) string {
	if private {
		return "HOME"
	}
	return "WORK"
}
