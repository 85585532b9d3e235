// Package grammar holds a self-verifying EBNF description of the NSS
// subset lang/ast's Emitter ever produces (spec's REDESIGN FLAGS call for
// checking the Emitter's output against a real grammar, not just eyeballing
// it). golang.org/x/exp/ebnf is the same grammar-verification package the
// Go toolchain itself uses to check the language spec's own grammar.
package grammar

import (
	"bytes"
	_ "embed"
	"fmt"

	"golang.org/x/exp/ebnf"
)

//go:embed nss.ebnf
var nssSource []byte

// Start is the grammar's entry production.
const Start = "Program"

// Parse parses the embedded nss.ebnf grammar.
func Parse() (ebnf.Grammar, error) {
	g, err := ebnf.Parse("nss.ebnf", bytes.NewReader(nssSource))
	if err != nil {
		return nil, fmt.Errorf("grammar: parse: %w", err)
	}
	return g, nil
}

// Verify parses the embedded grammar and checks it for the defects
// ebnf.Verify catches: undefined productions, productions unreachable from
// Start, and productions that are never referenced.
func Verify() error {
	g, err := Parse()
	if err != nil {
		return err
	}
	if err := ebnf.Verify(g, Start); err != nil {
		return fmt.Errorf("grammar: verify: %w", err)
	}
	return nil
}
