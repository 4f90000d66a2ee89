// Package exprlang implements the placeholder, helper-chain, and
// boolean-expression grammar shared by condition matching and message
// templating: a tokenizer, a Shunting-yard parser producing a postfix
// token stream, and a stack-machine evaluator over tagged operand
// values. The evaluator is total: a malformed expression evaluates to
// false rather than returning an error, and callers are expected to
// log that case themselves.
package exprlang
