// Package parser provides a participle-based tokenizer for SQLite statements.
//
// squeaky treats application DDL as opaque: it never validates or rewrites the
// statements a table descriptor supplies. Two questions still need a tokenizer
// that understands SQLite's quoting rules:
//
//   - Where does one statement end in a multi-statement script? Configuration
//     files declare tables as SQL scripts, and Split turns them into the ordered
//     statement lists table descriptors hand to the engine.
//   - How many bound parameters does a statement expect? The argument binder uses
//     CountPlaceholders to reject mismatched argument lists before they reach the
//     driver.
//
// The lexer is built with github.com/alecthomas/participle/v2/lexer and knows
// about line and block comments, single-quoted strings (with doubled quote escapes),
// double-quoted, backtick and bracket identifiers, numbered and named parameters,
// numbers, identifiers and punctuation.
//
// Basic usage:
//
//	stmts, err := parser.Split(script)
//	if err != nil {
//		return err
//	}
//
//	for _, stmt := range stmts {
//		n, err := parser.CountPlaceholders(stmt)
//		if err != nil {
//			return err
//		}
//
//		fmt.Printf("%d parameters: %s\n", n, stmt)
//	}
package parser
