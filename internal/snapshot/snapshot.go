// Package snapshot serializes the full record state to a portable JSON
// document for backup and restore.
//
// The document has exactly three top-level keys (groups, members and
// collections), with record field names preserved verbatim so an export can
// be re-imported byte-for-byte faithfully.
package snapshot

import (
	"encoding/json"
	"fmt"

	"lendtrack/internal/core"
	"lendtrack/internal/ledger"
)

// Source is the read surface needed to export.
type Source interface {
	Groups() []core.Group
	Members() []core.Member
	Collections() []core.Collection
}

type document struct {
	Groups      []core.Group      `json:"groups"`
	Members     []core.Member     `json:"members"`
	Collections []core.Collection `json:"collections"`
}

// sections mirrors document but defers decoding each collection, so a key
// can be told apart from an empty array and the whole input is validated
// before anything is applied.
type sections struct {
	Groups      json.RawMessage `json:"groups"`
	Members     json.RawMessage `json:"members"`
	Collections json.RawMessage `json:"collections"`
}

// Export serializes the three collections as a pretty-printed JSON document.
func Export(src Source) (string, error) {
	doc := document{
		Groups:      src.Groups(),
		Members:     src.Members(),
		Collections: src.Collections(),
	}
	if doc.Groups == nil {
		doc.Groups = []core.Group{}
	}
	if doc.Members == nil {
		doc.Members = []core.Member{}
	}
	if doc.Collections == nil {
		doc.Collections = []core.Collection{}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(out), nil
}

// Import parses text and replaces each collection whose key is present in
// the document; absent keys leave that collection untouched, so a document
// containing only members restores members alone.
//
// Import is all-or-nothing at the parse stage: any malformed section returns
// an error with the store unchanged. Once parsed, the replacements are
// applied unconditionally with no per-record validation.
func Import(store *ledger.Store, text string) error {
	var raw sections
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	var (
		groups      []core.Group
		members     []core.Member
		collections []core.Collection
	)
	if raw.Groups != nil {
		if err := json.Unmarshal(raw.Groups, &groups); err != nil {
			return fmt.Errorf("parse snapshot groups: %w", err)
		}
	}
	if raw.Members != nil {
		if err := json.Unmarshal(raw.Members, &members); err != nil {
			return fmt.Errorf("parse snapshot members: %w", err)
		}
	}
	if raw.Collections != nil {
		if err := json.Unmarshal(raw.Collections, &collections); err != nil {
			return fmt.Errorf("parse snapshot collections: %w", err)
		}
	}

	if raw.Groups != nil {
		store.ReplaceGroups(groups)
	}
	if raw.Members != nil {
		store.ReplaceMembers(members)
	}
	if raw.Collections != nil {
		store.ReplaceCollections(collections)
	}
	return nil
}
