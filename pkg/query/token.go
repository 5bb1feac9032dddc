package query

// TokenType identifies a lexical token of a filter expression.
type TokenType int

// Token types.
const (
	TokenEOF TokenType = iota
	TokenIllegal
	TokenRef    // $name
	TokenAnd    // AND
	TokenOr     // OR
	TokenNot    // NOT
	TokenLParen // (
	TokenRParen // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "end of expression",
	TokenIllegal: "illegal token",
	TokenRef:     "condition reference",
	TokenAnd:     "AND",
	TokenOr:      "OR",
	TokenNot:     "NOT",
	TokenLParen:  "(",
	TokenRParen:  ")",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "unknown"
}

// Token is a lexical token with its byte offset in the expression.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

var keywords = map[string]TokenType{
	"AND": TokenAnd,
	"OR":  TokenOr,
	"NOT": TokenNot,
}
