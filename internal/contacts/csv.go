// Package contacts parses uploaded contact lists into the shape the phone
// normalizer and campaign store consume. It does no storage of its own.
package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"outreach-platform/internal/campaigns"
	"outreach-platform/internal/phone"

	"github.com/google/uuid"
)

var ErrNoRows = errors.New("contacts: file has no data rows")

// well-known header names mapped onto Contact fields; anything else lands in
// the free-form Fields map and still gets scanned for phone numbers.
var (
	nameHeaders  = map[string]bool{"name": true, "full_name": true, "fullname": true, "contact_name": true}
	phoneHeaders = map[string]bool{"phone": true, "phone_number": true, "mobile": true, "number": true}
	emailHeaders = map[string]bool{"email": true, "email_address": true, "mail": true}
)

// ParseCSV reads a header-mapped CSV into records keyed by column name.
// Ragged rows are tolerated: short rows leave trailing columns unset, long
// rows drop the extra cells.
func ParseCSV(r io.Reader) ([]phone.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("contacts: reading header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var records []phone.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("contacts: reading row %d: %w", len(records)+2, err)
		}

		rec := phone.Record{}
		for i, h := range header {
			if h == "" || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				rec[h] = v
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records, nil
}

// ToContacts converts parsed records into campaign contacts, assigning IDs.
// Rows with no phone value are kept: they can still be messaged by email or
// matched later, and dropping them silently would hide upload mistakes.
func ToContacts(records []phone.Record) []campaigns.Contact {
	out := make([]campaigns.Contact, 0, len(records))
	for _, rec := range records {
		c := campaigns.Contact{ID: uuid.NewString(), Fields: map[string]string{}}
		for k, v := range rec {
			switch key := strings.ToLower(k); {
			case nameHeaders[key] && c.Name == "":
				c.Name = v
			case phoneHeaders[key] && c.Phone == "":
				c.Phone = v
			case emailHeaders[key] && c.Email == "":
				c.Email = v
			default:
				c.Fields[k] = v
			}
		}
		if len(c.Fields) == 0 {
			c.Fields = nil
		}
		out = append(out, c)
	}
	return out
}
