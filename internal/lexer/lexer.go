// Package lexer scans source text into tokens. The rune-at-a-time
// next/backup/peek shape is grounded on hhramberg-go-vslc/src/frontend/lexer.go
// (Rob Pike's scanner pattern), but this lexer is a synchronous, pull-based
// Next() rather than the teacher's goroutine-plus-channel design: the
// teacher's channel lexer exists purely to satisfy a goyacc-generated
// parser's Lex(*yySymType) callback, and this project's hand-written Pratt
// parser has no such requirement, so the extra goroutine and channel
// plumbing would be pure overhead. Token kinds, comment/escape handling, and
// keyword set are grounded on original_source/lib/core/jex_lexer.cpp.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"exc/internal/diag"
	"exc/internal/source"
)

// Kind differentiates token categories.
type Kind int

const (
	EOF Kind = iota
	Invalid
	Ident
	LitBool
	LitInt
	LitFloat
	LitString
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEQ
	OpNE
	OpLT
	OpGT
	OpLE
	OpGE
	OpBitAnd
	OpBitOr
	OpBitXor
	OpNot
	OpAnd
	OpOr
	OpShl
	OpShrs
	OpShrz
	ParensL
	ParensR
	Comma
	Colon
	Semicolon
	Assign
	KwVar
	KwConst
	KwExpr
)

// String renders the kind the way diagnostics quote a token, e.g.
// "operator '+'", matching the original lexer's operator<< form.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of file"
	case Invalid:
		return "invalid token"
	case Ident:
		return "identifier"
	case LitBool:
		return "bool literal"
	case LitInt:
		return "integer literal"
	case LitFloat:
		return "floating point literal"
	case LitString:
		return "string literal"
	case OpAdd:
		return "operator '+'"
	case OpSub:
		return "operator '-'"
	case OpMul:
		return "operator '*'"
	case OpDiv:
		return "operator '/'"
	case OpMod:
		return "operator '%'"
	case OpEQ:
		return "operator '=='"
	case OpNE:
		return "operator '!='"
	case OpLT:
		return "operator '<'"
	case OpGT:
		return "operator '>'"
	case OpLE:
		return "operator '<='"
	case OpGE:
		return "operator '>='"
	case OpBitAnd:
		return "operator '&'"
	case OpBitOr:
		return "operator '|'"
	case OpBitXor:
		return "operator '^'"
	case OpNot:
		return "operator '!'"
	case OpAnd:
		return "operator '&&'"
	case OpOr:
		return "operator '||'"
	case OpShl:
		return "operator 'shl'"
	case OpShrs:
		return "operator 'shrs'"
	case OpShrz:
		return "operator 'shrz'"
	case ParensL:
		return "'('"
	case ParensR:
		return "')'"
	case Comma:
		return "','"
	case Colon:
		return "':'"
	case Semicolon:
		return "';'"
	case Assign:
		return "'='"
	case KwVar:
		return "'var'"
	case KwConst:
		return "'const'"
	case KwExpr:
		return "'expr'"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is one lexeme: its kind, the exact source text it spans, its
// location, and (for LitString only) the escape-decoded string value.
type Token struct {
	Kind Kind
	Text string
	Span source.Span
	Str  string // decoded value, only meaningful when Kind == LitString
}

const eof = rune(0)

// Lexer scans one source file's worth of runes into tokens on demand.
type Lexer struct {
	input string
	pos   int // byte offset of the next unread rune
	width int // width in bytes of the last rune returned by next
	line  int
	col   int

	start     int // byte offset of the start of the token being scanned
	startLine int
	startCol  int

	diags *diag.Set
}

// New returns a Lexer over src, reporting irrecoverable lexical errors
// (unterminated strings/comments) into diags as Syntax-kind Fatal entries.
func New(src string, diags *diag.Set) *Lexer {
	return &Lexer{input: src, line: 1, col: 1, startLine: 1, startCol: 1, diags: diags}
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) backup() {
	if l.width == 0 {
		return
	}
	l.pos -= l.width
	if l.input[l.pos] == '\n' {
		l.line--
		// column is not recoverable in general after crossing a newline
		// backwards; peek() restores line and column itself, so backup()
		// never has to recover a column here.
	} else {
		l.col--
	}
	l.width = 0
}

func (l *Lexer) peek() rune {
	line, col := l.line, l.col
	r := l.next()
	l.backup()
	l.line, l.col = line, col
	return r
}

func (l *Lexer) resetToken() {
	l.start = l.pos
	l.startLine = l.line
	l.startCol = l.col
}

func (l *Lexer) here() source.Position {
	return source.Position{Line: l.line, Col: l.col}
}

func (l *Lexer) tokenSpan() source.Span {
	return source.Span{
		Begin: source.Position{Line: l.startLine, Col: l.startCol},
		End:   l.here(),
	}
}

func (l *Lexer) make(kind Kind) Token {
	return Token{Kind: kind, Text: l.input[l.start:l.pos], Span: l.tokenSpan()}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isAlpha(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isAlnum(r rune) bool { return isAlpha(r) || isDigit(r) }
func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\r' || r == '\n' }

// Next scans and returns the next token, skipping whitespace and comments.
// It never returns an error; unterminated strings/comments are reported as
// fatal diagnostics and surfaced as an Invalid token at the point of
// failure so the parser can still resynchronize and report further errors.
func (l *Lexer) Next() Token {
	for {
		for isSpace(l.peek()) {
			l.next()
		}
		l.resetToken()

		r := l.next()
		switch r {
		case eof:
			return l.make(EOF)
		case '(':
			return l.make(ParensL)
		case ')':
			return l.make(ParensR)
		case ',':
			return l.make(Comma)
		case '+':
			return l.make(OpAdd)
		case '-':
			return l.make(OpSub)
		case '*':
			return l.make(OpMul)
		case '"':
			l.backup()
			return l.scanString()
		case '/':
			switch l.peek() {
			case '/':
				l.next()
				for l.peek() != '\n' && l.peek() != eof {
					l.next()
				}
				continue
			case '*':
				l.next()
				if !l.skipBlockComment() {
					return l.make(Invalid)
				}
				continue
			default:
				return l.make(OpDiv)
			}
		case '%':
			return l.make(OpMod)
		case ':':
			return l.make(Colon)
		case ';':
			return l.make(Semicolon)
		case '=':
			if l.peek() == '=' {
				l.next()
				return l.make(OpEQ)
			}
			return l.make(Assign)
		case '<':
			if l.peek() == '=' {
				l.next()
				return l.make(OpLE)
			}
			return l.make(OpLT)
		case '>':
			if l.peek() == '=' {
				l.next()
				return l.make(OpGE)
			}
			return l.make(OpGT)
		case '!':
			if l.peek() == '=' {
				l.next()
				return l.make(OpNE)
			}
			return l.make(OpNot)
		case '&':
			if l.peek() == '&' {
				l.next()
				return l.make(OpAnd)
			}
			return l.make(OpBitAnd)
		case '|':
			if l.peek() == '|' {
				l.next()
				return l.make(OpOr)
			}
			return l.make(OpBitOr)
		case '^':
			return l.make(OpBitXor)
		}

		if isDigit(r) {
			return l.scanNumber()
		}
		if isAlpha(r) {
			return l.scanIdentOrKeyword()
		}

		return l.make(Invalid)
	}
}

func (l *Lexer) skipBlockComment() bool {
	for {
		r := l.peek()
		if r == eof {
			l.diags.Add(diag.Diagnostic{
				Kind: diag.Syntax, Span: l.tokenSpan(),
				Message: "unterminated comment", Fatal: true,
			})
			return false
		}
		l.next()
		if r == '*' && l.peek() == '/' {
			l.next()
			return true
		}
	}
}

func (l *Lexer) scanNumber() Token {
	for isDigit(l.peek()) {
		l.next()
	}
	isFloat := false
	if l.peek() == '.' {
		isFloat = true
		l.next()
		for isDigit(l.peek()) {
			l.next()
		}
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		isFloat = true
		l.next()
		if r := l.peek(); r == '+' || r == '-' {
			l.next()
		}
		for isDigit(l.peek()) {
			l.next()
		}
	}
	if isFloat {
		return l.make(LitFloat)
	}
	return l.make(LitInt)
}

var keywords = map[string]Kind{
	"var":   KwVar,
	"const": KwConst,
	"expr":  KwExpr,
	"true":  LitBool,
	"false": LitBool,
	"shl":   OpShl,
	"shrs":  OpShrs,
	"shrz":  OpShrz,
}

func (l *Lexer) scanIdentOrKeyword() Token {
	for isAlnum(l.peek()) {
		l.next()
	}
	text := l.input[l.start:l.pos]
	if kind, ok := keywords[text]; ok {
		return l.make(kind)
	}
	return l.make(Ident)
}

// scanString scans a double-quoted string literal, decoding the escape
// sequences jex_lexer.cpp's parseEscapedChar recognizes: \\ \' \? \" \a \b
// \f \n \r \t \v. An unterminated literal is a fatal Syntax diagnostic; an
// unknown escape is a non-fatal Syntax diagnostic and is left out of the
// decoded value.
func (l *Lexer) scanString() Token {
	l.next() // consume opening '"'
	var buf strings.Builder
	for {
		r := l.peek()
		switch r {
		case eof:
			l.diags.Add(diag.Diagnostic{
				Kind: diag.Syntax, Span: l.tokenSpan(),
				Message: "unterminated string literal", Fatal: true,
			})
			tok := l.make(Invalid)
			tok.Str = buf.String()
			return tok
		case '\\':
			l.next()
			esc := l.peek()
			decoded, ok := decodeEscape(esc)
			if !ok {
				l.diags.Add(diag.Diagnostic{
					Kind: diag.Syntax, Span: l.tokenSpan(),
					Message: fmt.Sprintf("invalid escape sequence '\\%c'", esc),
				})
			} else {
				buf.WriteRune(decoded)
			}
			if esc != eof {
				l.next()
			}
		case '"':
			l.next()
			tok := l.make(LitString)
			tok.Str = buf.String()
			return tok
		default:
			l.next()
			buf.WriteRune(r)
		}
	}
}

func decodeEscape(r rune) (rune, bool) {
	switch r {
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '?':
		return '?', true
	case '"':
		return '"', true
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return '\v', true
	default:
		return 0, false
	}
}
