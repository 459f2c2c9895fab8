package highlighter

import (
	"github.com/bethropolis/ebb/internal/highlighter/lang"
	gosrc "github.com/smacker/go-tree-sitter/golang"
	pythonsrc "github.com/smacker/go-tree-sitter/python"
)

// Capture names double as token types, so local spans and server semantic
// tokens are styled by the same theme entries.
const goQuery = `
(comment) @comment
(interpreted_string_literal) @string
(raw_string_literal) @string
(rune_literal) @string
(int_literal) @number
(float_literal) @number
(imaginary_literal) @number
[(true) (false) (nil) (iota)] @constant
(type_identifier) @type
(field_identifier) @property
(package_identifier) @namespace
(parameter_declaration name: (identifier) @parameter)
(function_declaration name: (identifier) @function)
(method_declaration name: (field_identifier) @method)
(call_expression function: (identifier) @function)
(call_expression function: (selector_expression field: (field_identifier) @method))
[
  "break" "case" "chan" "const" "continue" "default" "defer" "else"
  "fallthrough" "for" "func" "go" "goto" "if" "import" "interface"
  "map" "package" "range" "return" "select" "struct" "switch" "type" "var"
] @keyword
`

const pythonQuery = `
(comment) @comment
(string) @string
(integer) @number
(float) @number
[(true) (false) (none)] @constant
(class_definition name: (identifier) @type)
(function_definition name: (identifier) @function)
(call function: (identifier) @function)
[
  "def" "class" "return" "if" "elif" "else" "for" "while" "in" "import"
  "from" "as" "with" "try" "except" "finally" "raise" "pass" "break"
  "continue" "lambda" "yield" "not" "and" "or" "is" "global" "nonlocal"
  "assert" "del"
] @keyword
`

// DefaultLanguages returns a registry with the built-in grammars.
func DefaultLanguages() *lang.Registry {
	r := lang.NewRegistry()
	r.Register(&lang.Language{
		Name:           "Go",
		TreeSitterLang: gosrc.GetLanguage(),
		Extensions:     []string{".go"},
		Query:          goQuery,
	})
	r.Register(&lang.Language{
		Name:           "Python",
		TreeSitterLang: pythonsrc.GetLanguage(),
		Extensions:     []string{".py", ".pyw"},
		Query:          pythonQuery,
	})
	return r
}
