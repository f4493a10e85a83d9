package diag

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Code is a compact numeric identifier with a stable string form (E0412,
// E0308, ...). Codes never get reused once published, because rendered
// reports and the explain registry refer to them.
type Code uint16

const (
	// UnknownCode marks diagnostics without a stable code; headers render
	// without the bracketed suffix.
	UnknownCode Code = 0

	// Name resolution
	UnresolvedName  Code = 412
	DuplicateName   Code = 428
	PrivateName     Code = 603
	UnusedImport    Code = 611

	// Type checking
	TypeMismatch      Code = 308
	WrongArgCount     Code = 61
	NotCallable       Code = 618
	NoSuchField       Code = 609
	MissingTraitImpl  Code = 277
	RecursiveTypeSize Code = 72

	// Ownership / lifetime analysis
	UseAfterMove   Code = 382
	AssignTwice    Code = 384
	DanglingRef    Code = 597
	RetagZeroSized Code = 793

	// Syntax
	UnexpectedToken   Code = 701
	UnclosedDelimiter Code = 702
)

type codeInfo struct {
	title   string
	explain string
}

var codeRegistry = map[Code]codeInfo{
	UnresolvedName: {
		title: "cannot find value in this scope",
		explain: `A name was used that has no visible declaration.

The name may be misspelled, declared in another module that was not
imported, or declared later in a scope that does not hoist declarations.
Check the spelling first; the report usually carries a suggestion when a
declaration with a similar name exists.`,
	},
	DuplicateName: {
		title: "a name is defined multiple times",
		explain: `Two declarations in the same namespace share one name.

Only one definition per name is allowed within a scope. Rename one of the
declarations, or move one into a nested scope. The report points at both
declarations: the primary span marks the duplicate, a secondary note marks
the earlier definition.`,
	},
	PrivateName: {
		title: "item is private",
		explain: `An item was referenced from outside the module that declares it, but
the item is not exported.

Export the item at its declaration, or reference a public wrapper instead.`,
	},
	UnusedImport: {
		title: "unused import",
		explain: `An import is never referenced by the importing file.

Remove the import. This diagnostic carries a machine-applicable suggestion,
so an automated fix can delete the line safely.`,
	},
	TypeMismatch: {
		title: "mismatched types",
		explain: `An expression's type does not match the type expected at that position.

The primary span marks the expression with the wrong type; the message
names both the expected and the found type. When a known conversion exists,
the report attaches a suggestion demonstrating it.`,
	},
	WrongArgCount: {
		title: "function call has wrong number of arguments",
		explain: `A call supplies more or fewer arguments than the callee's signature
declares.

The secondary note points at the signature so the two can be compared
side by side.`,
	},
	NotCallable: {
		title: "expected function, found non-callable value",
		explain: `A call expression's callee is a value whose type has no call operator.

This is often a missing field access or a name that shadows a function.`,
	},
	NoSuchField: {
		title: "no field on this type",
		explain: `A field access names a field the type does not declare.

When a field with a close name exists, the report carries a
maybe-incorrect suggestion with the rename.`,
	},
	MissingTraitImpl: {
		title: "trait bound is not satisfied",
		explain: `A generic operation requires a capability the concrete type does not
implement.

The primary span marks the expression that imposed the requirement; the
secondary note marks where the requirement was introduced. Implement the
capability for the type, or constrain the generic parameter differently.`,
	},
	RecursiveTypeSize: {
		title: "recursive type has infinite size",
		explain: `A type contains itself by value, so its size cannot be computed.

Introduce an indirection (a reference or box) at some point of the cycle.
The attached suggestion shows where the indirection can be inserted.`,
	},
	UseAfterMove: {
		title: "use of moved value",
		explain: `A value was used after ownership of it had already been transferred.

The primary span marks the second use; a secondary note marks the move.
Either copy the value where the move happens or restructure the code so
only one owner remains.`,
	},
	AssignTwice: {
		title: "cannot assign twice to immutable binding",
		explain: `An immutable binding is assigned more than once.

Declare the binding mutable, or introduce a new binding for the second
value. The report carries a machine-applicable suggestion adding the
mutability marker.`,
	},
	DanglingRef: {
		title: "reference outlives the value it borrows",
		explain: `A reference escapes the scope of the value it points into.

Return the value itself instead of a reference, or extend the value's
lifetime to cover every use of the reference.`,
	},
	RetagZeroSized: {
		title: "invalid retag of zero-sized access",
		explain: `A raw pointer operation retagged a zero-sized access at a location the
aliasing model does not permit.

Zero-width spans are reported with a single caret at the exact byte the
retag targeted. These reports usually come from interpreter-level checks
and carry a help note rather than an automated fix.`,
	},
	UnexpectedToken: {
		title: "unexpected token",
		explain: `The parser met a token that cannot start or continue the current
construct.

The message names the expected token class. A machine-applicable
suggestion is attached when inserting a single token repairs the parse.`,
	},
	UnclosedDelimiter: {
		title: "unclosed delimiter",
		explain: `An opening bracket, brace, or parenthesis has no matching closer.

The primary span marks the opener; the note marks where the parser gave
up scanning for the closer.`,
	},
}

// ID returns the stable identifier form, e.g. "E0308".
func (c Code) ID() string {
	return fmt.Sprintf("E%04d", uint16(c))
}

// Title returns the one-line description of the code.
func (c Code) Title() string {
	if info, ok := codeRegistry[c]; ok {
		return info.title
	}
	return "unknown diagnostic code"
}

// Explain returns the extended explanation text shown by the explain
// command, or false when the code is not registered.
func (c Code) Explain() (string, bool) {
	info, ok := codeRegistry[c]
	if !ok {
		return "", false
	}
	return info.explain, true
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode converts an identifier like "E0308" (or bare "308") back into
// a Code, reporting whether it names a registered code.
func ParseCode(id string) (Code, bool) {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(id)), "E")
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return UnknownCode, false
	}
	c := Code(n)
	_, ok := codeRegistry[c]
	return c, ok
}

// RegisteredCodes returns every registered code in ascending order.
func RegisteredCodes() []Code {
	out := make([]Code, 0, len(codeRegistry))
	for c := range codeRegistry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
