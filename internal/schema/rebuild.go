package schema

import (
	"errors"
	"strings"
)

// Helpers for backends that cannot alter constraints in place. The stored
// CREATE TABLE statement is edited and the table is rebuilt from it.

var errMalformedCreate = errors.New("malformed CREATE TABLE statement")

// definitionBounds returns the positions of the parentheses enclosing the
// column and constraint definitions.
func definitionBounds(createSQL string) (open, close int, err error) {
	depth := 0
	open = -1
	var quote byte
	for i := 0; i < len(createSQL); i++ {
		c := createSQL[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '[':
			quote = ']'
		case '(':
			if depth == 0 && open < 0 {
				open = i
			}
			depth++
		case ')':
			depth--
			if depth == 0 && open >= 0 {
				return open, i, nil
			}
		}
	}
	return 0, 0, errMalformedCreate
}

// SplitDefinitions splits the body of a CREATE TABLE statement on its
// top-level commas.
func SplitDefinitions(createSQL string) ([]string, error) {
	open, close, err := definitionBounds(createSQL)
	if err != nil {
		return nil, err
	}
	body := createSQL[open+1 : close]
	var defs []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '[':
			quote = ']'
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				defs = append(defs, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(body[start:]); last != "" {
		defs = append(defs, last)
	}
	return defs, nil
}

func joinDefinitions(createSQL string, defs []string) (string, error) {
	open, close, err := definitionBounds(createSQL)
	if err != nil {
		return "", err
	}
	return createSQL[:open+1] + "\n\t" + strings.Join(defs, ",\n\t") + "\n" + createSQL[close:], nil
}

// AddTableConstraint appends a table constraint clause to createSQL.
func AddTableConstraint(createSQL, clause string) (string, error) {
	defs, err := SplitDefinitions(createSQL)
	if err != nil {
		return "", err
	}
	return joinDefinitions(createSQL, append(defs, clause))
}

// RemoveTableConstraint drops the named table constraint from createSQL.
// It reports false when no constraint with that name exists.
func (d *Dialect) RemoveTableConstraint(createSQL, name string) (string, bool, error) {
	defs, err := SplitDefinitions(createSQL)
	if err != nil {
		return "", false, err
	}
	candidates := []string{
		"CONSTRAINT " + d.Quote(name) + " ",
		"CONSTRAINT " + name + " ",
	}
	kept := defs[:0]
	found := false
	for _, def := range defs {
		matched := false
		for _, c := range candidates {
			if len(def) >= len(c) && strings.EqualFold(def[:len(c)], c) {
				matched = true
				break
			}
		}
		if matched {
			found = true
			continue
		}
		kept = append(kept, def)
	}
	if !found {
		return createSQL, false, nil
	}
	out, err := joinDefinitions(createSQL, kept)
	return out, true, err
}

// RenameCreateTable rewrites the table name of createSQL to quotedName.
func RenameCreateTable(createSQL, quotedName string) (string, error) {
	open, _, err := definitionBounds(createSQL)
	if err != nil {
		return "", err
	}
	return "CREATE TABLE " + quotedName + " " + createSQL[open:], nil
}
