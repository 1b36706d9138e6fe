// Package lang evaluates konfigypr configuration source into an ordered,
// JSON-compatible [Document].
//
// # Grammar
//
// Informal EBNF, one statement per physical line:
//
//	Line          → Comment? (Declaration | Assignment | BareValue)? Comment?
//	Declaration   → "global" WS Name WS? "=" WS? Value WS? ";"?
//	Assignment    → Name WS? "=" WS? Value WS? ";"?
//	BareValue     → Value WS? ";"?
//	Value         → ConstantRef | Number | BracketString | List | Boolean | Name
//	ConstantRef   → "|" Name "|"
//	Number        → Digit+ ("." Digit*)?
//	BracketString → "[[" Any* "]]"
//	List          → "list(" (Value ("," Value)*)? ")"
//	Boolean       → "true" | "false"   (case-insensitive)
//	Name          → Letter (Letter | Digit | "_")*
//	Comment       → "#" Any*
//
// # Example
//
//	# constants are never emitted
//	global port = 8080;
//
//	host = localhost;
//	ports = list(|port|, 8443);
//	banner = [[Hello, World!]];
//	debug = TRUE;
//	3.5;              # stored as item_4
//
// evaluates to
//
//	{"host": "localhost", "ports": [8080, 8443], "banner": "Hello, World!",
//	 "debug": true, "item_4": 3.5}
//
// # Evaluation
//
// [ParseString] evaluates in two passes. The first pass binds constants in
// source order, so a declaration sees only constants declared above it. The
// second pass evaluates assignments and bare values with every constant
// visible. Declaration and assignment errors abort the parse; a bare value
// that fails to parse is skipped.
//
// Bare values are stored under "item_<n>", where n is the number of keys in
// the document at that moment. An earlier assignment to the same name is
// overwritten.
//
// All evaluation state belongs to a single call, so concurrent parses are
// independent. [ParseCached] additionally memoizes results by source
// content.
//
// # Output
//
// [FormatJSON], [FormatYAML] and [FormatNative] write a document as JSON, YAML
// or konfigypr source. [Document.Query] evaluates expr-lang expressions with
// the document keys in scope.
package lang
