package lexer

// The scanner is a table-driven DFA over byte classes. Each state has one
// transition per class (0 is the dead state) and an accept category; Scan
// runs the longest match.

type class uint8

const (
	clOther class = iota // bytes no lexeme starts with, non-ASCII included
	clBlank              // ' ', '\t', '\v', '\f'
	clCR
	clNewline
	clZero
	clDigit    // 1-9
	clHexAlpha // a-d, f, A-D, F
	clE        // e, E
	clX        // x, X
	clLetter   // other letters
	clUnderscore
	clDot
	clDQuote
	clSQuote
	clDollar
	clBackslash
	clHash
	clSlash
	clStar
	clPlus
	clMinus
	clEq
	clBang
	clLt
	clGt
	clAmp
	clPipe
	clSingle // ( ) [ ] { } , ; % ^ :
	numClasses
)

var classOf [256]class

func init() {
	for c := 0; c < 256; c++ {
		classOf[c] = clOther
	}
	for _, c := range []byte(" \t\v\f") {
		classOf[c] = clBlank
	}
	classOf['\r'] = clCR
	classOf['\n'] = clNewline
	classOf['0'] = clZero
	for c := '1'; c <= '9'; c++ {
		classOf[c] = clDigit
	}
	for c := 'a'; c <= 'z'; c++ {
		classOf[c] = clLetter
		classOf[c-'a'+'A'] = clLetter
	}
	for _, c := range []byte("abcdfABCDF") {
		classOf[c] = clHexAlpha
	}
	classOf['e'], classOf['E'] = clE, clE
	classOf['x'], classOf['X'] = clX, clX
	classOf['_'] = clUnderscore
	classOf['.'] = clDot
	classOf['"'] = clDQuote
	classOf['\''] = clSQuote
	classOf['$'] = clDollar
	classOf['\\'] = clBackslash
	classOf['#'] = clHash
	classOf['/'] = clSlash
	classOf['*'] = clStar
	classOf['+'] = clPlus
	classOf['-'] = clMinus
	classOf['='] = clEq
	classOf['!'] = clBang
	classOf['<'] = clLt
	classOf['>'] = clGt
	classOf['&'] = clAmp
	classOf['|'] = clPipe
	for _, c := range []byte("()[]{},;%^:") {
		classOf[c] = clSingle
	}
}

type state uint8

const (
	sDead state = iota
	sCode
	sLine
	sBlank
	sNewline
	sWord
	sZero
	sInt
	sHexPrefix
	sHex
	sDollar
	sDot
	sFrac
	sExp
	sExpSign
	sExpDigits
	sDQ
	sDQEnd
	sSQ
	sSQEnd
	sSlash
	sLineComment
	sBlockComment
	sBlockStar
	sBlockEnd
	sOp     // complete operator
	sEq     // =
	sBang   // !
	sLt     // <
	sGt     // >
	sAmp    // &
	sPipe   // |
	sHashOp // '#' outside a line start
	sDirective
	sDirEscape
	sDirEscapeCR
	sDirSlash
	sDirLineComment
	sDirComment
	sDirCommentStar
	sDirDQ
	sDirDQEscape
	sDirDQEscapeCR
	sDirSQ
	sDirSQEscape
	sDirSQEscapeCR
	numStates
)

var (
	transitions [numStates][numClasses]state
	accepting   [numStates]Category
	unclosed    [numStates]bool
)

// on adds transitions from s to next for each class in cls.
func on(s state, next state, cls ...class) {
	for _, c := range cls {
		transitions[s][c] = next
	}
}

// onAllBut adds transitions from s to next for every class not in except.
func onAllBut(s state, next state, except ...class) {
	for c := class(0); c < numClasses; c++ {
		skip := false
		for _, e := range except {
			if c == e {
				skip = true
				break
			}
		}
		if !skip {
			transitions[s][c] = next
		}
	}
}

func accept(cat Category, states ...state) {
	for _, s := range states {
		accepting[s] = cat
	}
}

var (
	letters  = []class{clHexAlpha, clE, clX, clLetter, clUnderscore}
	digits   = []class{clZero, clDigit}
	hexDigit = []class{clZero, clDigit, clHexAlpha, clE}
)

func init() {
	// Both start states share every transition except '#'.
	for _, start := range []state{sCode, sLine} {
		on(start, sBlank, clBlank, clCR)
		on(start, sNewline, clNewline)
		on(start, sWord, letters...)
		on(start, sZero, clZero)
		on(start, sInt, clDigit)
		on(start, sDot, clDot)
		on(start, sDollar, clDollar)
		on(start, sDQ, clDQuote)
		on(start, sSQ, clSQuote)
		on(start, sSlash, clSlash)
		on(start, sOp, clStar, clPlus, clMinus, clSingle)
		on(start, sEq, clEq)
		on(start, sBang, clBang)
		on(start, sLt, clLt)
		on(start, sGt, clGt)
		on(start, sAmp, clAmp)
		on(start, sPipe, clPipe)
	}
	on(sCode, sHashOp, clHash)
	on(sLine, sDirective, clHash)

	on(sBlank, sBlank, clBlank, clCR)
	accept(CatWhitespace, sBlank)
	accept(CatNewline, sNewline)

	on(sWord, sWord, letters...)
	on(sWord, sWord, digits...)
	accept(CatWord, sWord)

	// Numbers: 12, 1.5, .5, 1e-3, 0x1F, $1F.
	on(sZero, sInt, digits...)
	on(sZero, sHexPrefix, clX)
	on(sZero, sFrac, clDot)
	on(sZero, sExp, clE)
	on(sInt, sInt, digits...)
	on(sInt, sFrac, clDot)
	on(sInt, sExp, clE)
	on(sHexPrefix, sHex, hexDigit...)
	on(sDollar, sHex, hexDigit...)
	on(sHex, sHex, hexDigit...)
	on(sDot, sFrac, digits...)
	on(sFrac, sFrac, digits...)
	on(sFrac, sExp, clE)
	on(sExp, sExpSign, clPlus, clMinus)
	on(sExp, sExpDigits, digits...)
	on(sExpSign, sExpDigits, digits...)
	on(sExpDigits, sExpDigits, digits...)
	accept(CatNumber, sZero, sInt, sHex, sFrac, sExpDigits)

	// Strings may span lines; a doubled quote stands for one quote.
	onAllBut(sDQ, sDQ, clDQuote)
	on(sDQ, sDQEnd, clDQuote)
	on(sDQEnd, sDQ, clDQuote)
	onAllBut(sSQ, sSQ, clSQuote)
	on(sSQ, sSQEnd, clSQuote)
	on(sSQEnd, sSQ, clSQuote)
	accept(CatString, sDQ, sDQEnd, sSQ, sSQEnd)
	unclosed[sDQ], unclosed[sSQ] = true, true

	on(sSlash, sLineComment, clSlash)
	on(sSlash, sBlockComment, clStar)
	onAllBut(sLineComment, sLineComment, clNewline)
	onAllBut(sBlockComment, sBlockComment, clStar)
	on(sBlockComment, sBlockStar, clStar)
	onAllBut(sBlockStar, sBlockComment, clStar, clSlash)
	on(sBlockStar, sBlockStar, clStar)
	on(sBlockStar, sBlockEnd, clSlash)
	accept(CatComment, sLineComment, sBlockComment, sBlockStar, sBlockEnd)
	unclosed[sBlockComment], unclosed[sBlockStar] = true, true

	// Operators: = == ! != < <= > >= >> && || and the single-byte ones.
	on(sEq, sOp, clEq)
	on(sBang, sOp, clEq)
	on(sLt, sOp, clEq)
	on(sGt, sOp, clEq, clGt)
	on(sAmp, sOp, clAmp)
	on(sPipe, sOp, clPipe)
	accept(CatOperator, sOp, sEq, sBang, sLt, sGt, sSlash, sHashOp)

	// Directives run to the end of the line; a backslash before the line
	// break continues them. Block comments and string literals started on a
	// directive line extend it across their line breaks.
	for _, s := range []state{sDirective, sDirSlash, sDirEscape, sDirEscapeCR} {
		directiveLine(s)
	}
	on(sDirSlash, sDirComment, clStar)
	on(sDirSlash, sDirLineComment, clSlash)
	onAllBut(sDirLineComment, sDirLineComment, clNewline, clBackslash)
	on(sDirLineComment, sDirEscape, clBackslash)
	on(sDirEscape, sDirective, clNewline)
	on(sDirEscape, sDirEscapeCR, clCR)
	on(sDirEscapeCR, sDirective, clNewline)

	onAllBut(sDirComment, sDirComment, clStar)
	on(sDirComment, sDirCommentStar, clStar)
	onAllBut(sDirCommentStar, sDirComment, clStar, clSlash)
	on(sDirCommentStar, sDirCommentStar, clStar)
	on(sDirCommentStar, sDirective, clSlash)

	directiveString(clDQuote, sDirDQ, sDirDQEscape, sDirDQEscapeCR)
	directiveString(clSQuote, sDirSQ, sDirSQEscape, sDirSQEscapeCR)

	accept(CatDirective,
		sDirective, sDirEscape, sDirEscapeCR, sDirSlash, sDirLineComment, sDirComment, sDirCommentStar,
		sDirDQ, sDirDQEscape, sDirDQEscapeCR, sDirSQ, sDirSQEscape, sDirSQEscapeCR)
}

// directiveLine gives s the transitions of plain directive text. A newline
// is not among them.
func directiveLine(s state) {
	onAllBut(s, sDirective, clNewline, clBackslash, clSlash, clDQuote, clSQuote)
	on(s, sDirEscape, clBackslash)
	on(s, sDirSlash, clSlash)
	on(s, sDirDQ, clDQuote)
	on(s, sDirSQ, clSQuote)
}

// directiveString adds a string literal inside a directive. An unescaped
// line break ends the directive inside the string; a doubled quote reopens
// it from sDirective.
func directiveString(quote class, str, esc, escCR state) {
	onAllBut(str, str, quote, clNewline, clBackslash)
	on(str, sDirective, quote)
	on(str, esc, clBackslash)

	onAllBut(esc, str, quote, clBackslash, clCR)
	on(esc, sDirective, quote)
	on(esc, esc, clBackslash)
	on(esc, escCR, clCR)

	onAllBut(escCR, str, quote, clBackslash)
	on(escCR, sDirective, quote)
	on(escCR, esc, clBackslash)
}
