// Package syntax is a small JavaScript token scanner.
//
// It is used on transpiler output, which is always plain JavaScript: JSX
// has already been lowered to createNode calls. The scanner tracks enough
// context to tell regular expressions from division and to split template
// literals around their interpolations, so that bracket matching and
// identifier analysis never look inside string content.
package syntax
