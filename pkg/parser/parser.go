package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// maxParameterNumber is SQLite's default SQLITE_MAX_VARIABLE_NUMBER.
const maxParameterNumber = 32766

var (
	// sqliteLexer tokenizes SQLite statements. Only the token classes needed to find
	// statement boundaries and bound parameters are distinguished.
	sqliteLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `--[^\r\n]*`},
		{Name: "MultilineComment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
		{Name: "String", Pattern: `'([^']|'')*'`},
		{Name: "QuotedIdent", Pattern: `"([^"]|"")*"`},
		{Name: "BacktickIdent", Pattern: "`([^`]|``)*`"},
		{Name: "BracketIdent", Pattern: `\[[^\]]*\]`},
		{Name: "Placeholder", Pattern: `\?\d*`},
		{Name: "NamedParam", Pattern: `[:@$][\p{L}\p{N}_$]+`},
		{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|\d+(\.\d*)?([eE][+-]?\d+)?|\.\d+([eE][+-]?\d+)?`},
		{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
		{Name: "Semicolon", Pattern: `;`},
		{Name: "Punct", Pattern: "[^\\s\\p{L}0-9_'\"`;]"},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	symbols = sqliteLexer.Symbols()

	commentToken     = symbols["Comment"]
	multilineToken   = symbols["MultilineComment"]
	whitespaceToken  = symbols["Whitespace"]
	identToken       = symbols["Ident"]
	semicolonToken   = symbols["Semicolon"]
	placeholderToken = symbols["Placeholder"]
	namedParamToken  = symbols["NamedParam"]
)

// Split breaks a SQL script into individual statements on top-level semicolons.
//
// Semicolons inside string literals, quoted identifiers and comments never split a
// statement. CREATE TRIGGER bodies are kept whole: semicolons between BEGIN and the
// matching END (accounting for nested CASE ... END) belong to the trigger. Leading
// comments and whitespace are dropped, as are statements consisting only of
// comments. The returned statements carry no trailing semicolon.
//
// Example usage:
//
//	stmts, err := parser.Split(`
//		-- users table
//		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
//		CREATE INDEX users_name ON users (name);
//	`)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// stmts[0] == "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"
//	// stmts[1] == "CREATE INDEX users_name ON users (name)"
//
// Returns an error if the script cannot be tokenized, e.g. an unterminated string
// literal.
func Split(sql string) ([]string, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return nil, err
	}

	var (
		stmts   []string
		current strings.Builder
		lead    []string
		depth   int
		trigger bool
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}

		current.Reset()
		lead = lead[:0]
		depth = 0
		trigger = false
	}

	for _, tok := range tokens {
		switch tok.Type {
		case semicolonToken:
			if depth == 0 {
				flush()
				continue
			}
		case commentToken, multilineToken, whitespaceToken:
			// Nothing significant yet, so this belongs to no statement
			if current.Len() == 0 {
				continue
			}
		case identToken:
			word := strings.ToUpper(tok.Value)
			if len(lead) < 4 {
				lead = append(lead, word)
				trigger = trigger || isCreateTrigger(lead)
			}

			if trigger {
				switch word {
				case "BEGIN", "CASE":
					depth++
				case "END":
					if depth > 0 {
						depth--
					}
				}
			}
		}

		current.WriteString(tok.Value)
	}

	flush()
	return stmts, nil
}

// CountPlaceholders returns the number of bound parameters a statement expects,
// following SQLite's numbering rules:
//
//   - "?" takes the number one greater than the largest number assigned so far
//   - "?NNN" takes the number NNN
//   - ":name", "@name" and "$name" take the next number the first time a name is
//     seen and reuse it afterwards
//
// The result is the largest parameter number, which is what the driver requires as
// the argument count.
//
// Example usage:
//
//	n, _ := parser.CountPlaceholders("UPDATE t SET a = ? WHERE b = ?")       // 2
//	n, _ = parser.CountPlaceholders("SELECT ?2, ?1, ?")                         // 3
//	n, _ = parser.CountPlaceholders("SELECT * FROM t WHERE a = :a OR b = :a") // 1
//	n, _ = parser.CountPlaceholders("SELECT '?' FROM t")                        // 0
func CountPlaceholders(stmt string) (int, error) {
	params, err := Parameters(stmt)
	if err != nil {
		return 0, err
	}

	return len(params), nil
}

// Parameters returns the name of every bound parameter in stmt, indexed by parameter
// number minus one. Names keep their prefix (":id", "@id", "$id"). Positional
// parameters, and numbers no parameter refers to, have an empty name.
//
// Example usage:
//
//	params, _ := parser.Parameters("SELECT * FROM t WHERE a = :a AND b = ? OR c = :a")
//	// params == []string{":a", ""}
func Parameters(stmt string) ([]string, error) {
	tokens, err := tokenize(stmt)
	if err != nil {
		return nil, err
	}

	var params []string
	named := make(map[string]struct{})

	for _, tok := range tokens {
		switch tok.Type {
		case placeholderToken:
			if tok.Value == "?" {
				params = append(params, "")
				continue
			}

			n, err := strconv.Atoi(tok.Value[1:])
			if err != nil || n < 1 || n > maxParameterNumber {
				return nil, errors.Errorf("invalid parameter %s at offset %d", tok.Value, tok.Pos.Offset)
			}

			for len(params) < n {
				params = append(params, "")
			}
		case namedParamToken:
			if _, ok := named[tok.Value]; ok {
				continue
			}

			named[tok.Value] = struct{}{}
			params = append(params, tok.Value)
		}
	}

	return params, nil
}

func tokenize(sql string) ([]lexer.Token, error) {
	lex, err := sqliteLexer.LexString("", sql)
	if err != nil {
		return nil, errors.Wrap(err, "failed to tokenize SQL")
	}

	var tokens []lexer.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, errors.Wrap(err, "failed to tokenize SQL")
		}

		if tok.EOF() {
			return tokens, nil
		}

		tokens = append(tokens, tok)
	}
}

func isCreateTrigger(words []string) bool {
	if len(words) < 2 || words[0] != "CREATE" {
		return false
	}

	// CREATE [TEMP|TEMPORARY] TRIGGER
	for _, w := range words[1:] {
		switch w {
		case "TRIGGER":
			return true
		case "TEMP", "TEMPORARY":
			continue
		default:
			return false
		}
	}

	return false
}
