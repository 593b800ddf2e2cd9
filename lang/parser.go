package lang

import "strconv"

// Parser builds an AST from a token stream using recursive descent with a
// small precedence ladder. It never recovers from an error: the first one
// aborts parsing (SPEC_FULL.md §4.2).
type Parser struct {
	toks []Token
	pos  int
}

// Parse lexes and parses source in one step.
func Parse(source string) (File, error) {
	lx := NewLexer(source)
	toks, err := lx.Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(toks).ParseFile()
}

// NewParser returns a Parser over toks. Comment tokens are filtered out, as
// the parser never sees them (SPEC_FULL.md §4.1).
func NewParser(toks []Token) *Parser {
	filtered := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != KindComment {
			filtered = append(filtered, t)
		}
	}
	return &Parser{toks: filtered}
}

func (p *Parser) cur() Token {
	return p.toks[p.pos]
}

func (p *Parser) peekKind() Kind {
	return p.toks[p.pos].Kind
}

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(k Kind) bool {
	return p.peekKind() == k
}

func (p *Parser) match(k Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k Kind) (Token, error) {
	if !p.check(k) {
		return Token{}, newParseError(p.cur(), "expected %s but found %s", k, p.cur().Kind)
	}
	return p.advance(), nil
}

func (p *Parser) expectIdentifierText() (string, error) {
	if !p.check(KindIdentifier) {
		return "", newParseError(p.cur(), "expected identifier but found %s", p.cur().Kind)
	}
	return p.advance().Text, nil
}

// ParseFile parses a whole source file into either a *Program or a
// *ServerConfig, depending on whether any of tls/config/global-handler/import
// appear at top level.
func (p *Parser) ParseFile() (File, error) {
	var (
		routes  []*Route
		imports []*Import
		tls     *TlsConfig
		cfg     *ConfigBlock
		geh     *GlobalErrorHandler
	)

	for !p.check(KindEOF) {
		switch p.peekKind() {
		case KindTLS:
			if tls != nil {
				return nil, newParseError(p.cur(), "duplicate top-level tls block")
			}
			t, err := p.parseTLSBlock()
			if err != nil {
				return nil, err
			}
			tls = t
		case KindConfig:
			if cfg != nil {
				return nil, newParseError(p.cur(), "duplicate top-level config block")
			}
			c, err := p.parseConfigBlock()
			if err != nil {
				return nil, err
			}
			cfg = c
		case KindGlobalErrorHandler:
			if geh != nil {
				return nil, newParseError(p.cur(), "duplicate top-level global_error_handler block")
			}
			g, err := p.parseGlobalErrorHandler()
			if err != nil {
				return nil, err
			}
			geh = g
		case KindImport:
			im, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			imports = append(imports, im)
		case KindRoute:
			r, err := p.parseRoute()
			if err != nil {
				return nil, err
			}
			routes = append(routes, r)
		default:
			return nil, newParseError(p.cur(), "unexpected top-level token %s", p.cur().Kind)
		}
	}

	if tls == nil && cfg == nil && geh == nil && len(imports) == 0 {
		return &Program{Routes: routes}, nil
	}

	return &ServerConfig{
		Routes:             routes,
		Imports:            imports,
		TLS:                tls,
		GlobalErrorHandler: geh,
		Config:             cfg,
	}, nil
}

func (p *Parser) parseImport() (*Import, error) {
	p.advance() // import
	pathTok, err := p.expect(KindString)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindAs); err != nil {
		return nil, err
	}
	alias, err := p.expectIdentifierText()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}
	return &Import{Path: pathTok.Text, Alias: alias}, nil
}

func (p *Parser) parseTLSBlock() (*TlsConfig, error) {
	p.advance() // tls
	if _, err := p.expect(KindLBrace); err != nil {
		return nil, err
	}

	tls := &TlsConfig{}
	for !p.check(KindRBrace) {
		switch p.peekKind() {
		case KindEnabled:
			p.advance()
			if _, err := p.expect(KindAssign); err != nil {
				return nil, err
			}
			switch p.peekKind() {
			case KindIdentifier:
				tls.Enabled = p.advance().Text == "true"
			default:
				return nil, newParseError(p.cur(), "expected true/false for tls.enabled")
			}
			if _, err := p.expect(KindSemicolon); err != nil {
				return nil, err
			}
		case KindCertPath:
			p.advance()
			if _, err := p.expect(KindAssign); err != nil {
				return nil, err
			}
			tok, err := p.expect(KindString)
			if err != nil {
				return nil, err
			}
			tls.CertPath = tok.Text
			if _, err := p.expect(KindSemicolon); err != nil {
				return nil, err
			}
		case KindKeyPath:
			p.advance()
			if _, err := p.expect(KindAssign); err != nil {
				return nil, err
			}
			tok, err := p.expect(KindString)
			if err != nil {
				return nil, err
			}
			tls.KeyPath = tok.Text
			if _, err := p.expect(KindSemicolon); err != nil {
				return nil, err
			}
		default:
			return nil, newParseError(p.cur(), "unexpected token in tls block: %s", p.cur().Kind)
		}
	}
	p.advance() // }
	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}
	return tls, nil
}

func (p *Parser) parseConfigBlock() (*ConfigBlock, error) {
	tok := p.cur()
	p.advance() // config
	if _, err := p.expect(KindLBrace); err != nil {
		return nil, err
	}

	cfg := &ConfigBlock{}
	seen := 0
	for !p.check(KindRBrace) {
		switch p.peekKind() {
		case KindType:
			p.advance()
			if _, err := p.expect(KindAssign); err != nil {
				return nil, err
			}
			v, err := p.parseConfigValue()
			if err != nil {
				return nil, err
			}
			cfg.ConfigType = v
			seen++
			if _, err := p.expect(KindSemicolon); err != nil {
				return nil, err
			}
		case KindHost:
			p.advance()
			if _, err := p.expect(KindAssign); err != nil {
				return nil, err
			}
			v, err := p.parseConfigValue()
			if err != nil {
				return nil, err
			}
			cfg.Host = v
			seen++
			if _, err := p.expect(KindSemicolon); err != nil {
				return nil, err
			}
		case KindPort:
			p.advance()
			if _, err := p.expect(KindAssign); err != nil {
				return nil, err
			}
			v, err := p.parseConfigValue()
			if err != nil {
				return nil, err
			}
			cfg.Port = v
			seen++
			if _, err := p.expect(KindSemicolon); err != nil {
				return nil, err
			}
		default:
			return nil, newParseError(p.cur(), "unexpected token in config block: %s", p.cur().Kind)
		}
	}
	p.advance() // }
	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}

	if seen == 0 {
		return nil, newParseError(tok, "config block requires at least one of type/host/port")
	}

	if cfg.ConfigType == "http" {
		if cfg.Host == "" || cfg.Port == "" {
			return nil, newParseError(tok, "config of type \"http\" requires non-empty host and port")
		}
		if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
			return nil, newParseError(tok, "config port must be a 16-bit unsigned integer: %s", cfg.Port)
		}
	}

	return cfg, nil
}

// parseConfigValue accepts STRING, NUMBER, or IDENT, per SPEC_FULL.md §6.1's
// config_entry production.
func (p *Parser) parseConfigValue() (string, error) {
	switch p.peekKind() {
	case KindString:
		return p.advance().Text, nil
	case KindNumber:
		return p.advance().Text, nil
	case KindIdentifier:
		return p.advance().Text, nil
	default:
		return "", newParseError(p.cur(), "expected string, number, or identifier but found %s", p.cur().Kind)
	}
}

func (p *Parser) parseGlobalErrorHandler() (*GlobalErrorHandler, error) {
	p.advance() // global_error_handler
	if _, err := p.expect(KindLParen); err != nil {
		return nil, err
	}
	errVar, err := p.expectIdentifierText()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}
	return &GlobalErrorHandler{ErrorVar: errVar, Body: body}, nil
}

func (p *Parser) parseRoute() (*Route, error) {
	tok := p.cur()
	p.advance() // route
	pathTok, err := p.expect(KindString)
	if err != nil {
		return nil, err
	}
	methodTok, err := p.expect(KindHTTPMethod)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var onErr *ErrorHandlerBlock
	if p.check(KindOnError) {
		p.advance()
		if _, err := p.expect(KindLParen); err != nil {
			return nil, err
		}
		errVar, err := p.expectIdentifierText()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(KindRParen); err != nil {
			return nil, err
		}
		ebody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		onErr = &ErrorHandlerBlock{ErrorVar: errVar, Body: ebody}
	}

	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}

	return &Route{
		Path:    pathTok.Text,
		Method:  methodTok.Text,
		Body:    body,
		OnError: onErr,
		Line:    tok.Line,
		Column:  tok.Column,
	}, nil
}

func (p *Parser) parseBlock() (*Block, error) {
	if _, err := p.expect(KindLBrace); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.check(KindRBrace) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // }
	return &Block{Statements: stmts}, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peekKind() {
	case KindVal, KindVar:
		return p.parseVarDeclaration()
	case KindIf:
		return p.parseIfStatement()
	case KindWhile:
		return p.parseWhileLoop()
	case KindFor:
		return p.parseForLoop()
	case KindIdentifier:
		if p.isCompoundAssignAhead() {
			return p.parseCompoundAssign()
		}
		return p.parseExprStatement()
	default:
		return p.parseExprStatement()
	}
}

// isCompoundAssignAhead reports whether the parser is looking at
// `IDENT OP= ` with OP in + - * / ^, without consuming tokens.
func (p *Parser) isCompoundAssignAhead() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	switch p.toks[p.pos+1].Kind {
	case KindPlusAssign, KindMinusAssign, KindStarAssign, KindSlashAssign, KindCaretAssign:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCompoundAssign() (Stmt, error) {
	name := p.advance().Text
	op := p.advance().Kind
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}
	return &CompoundAssign{Name: name, Operator: op, Value: val}, nil
}

func (p *Parser) parseVarDeclaration() (Stmt, error) {
	p.advance() // val/var
	name, err := p.expectIdentifierText()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindAssign); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}
	return &VarDeclaration{Name: name, Value: val}, nil
}

func (p *Parser) parseIfStatement() (Stmt, error) {
	p.advance() // if
	if _, err := p.expect(KindLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	ifStmt := &IfStatement{Cond: cond, Then: then}

	if p.check(KindElse) {
		p.advance()
		if p.check(KindIf) {
			elseIf, err := p.parseIfStatement()
			if err != nil {
				return nil, err
			}
			ifStmt.Else = elseIf
			return ifStmt, nil
		}
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		ifStmt.Else = &BlockStmt{Body: elseBody}
		return ifStmt, nil
	}

	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}
	return ifStmt, nil
}

func (p *Parser) parseWhileLoop() (Stmt, error) {
	p.advance() // while
	if _, err := p.expect(KindLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileLoop{Cond: cond, Body: body}, nil
}

func (p *Parser) parseForLoop() (Stmt, error) {
	p.advance() // for
	if _, err := p.expect(KindLParen); err != nil {
		return nil, err
	}
	varName, err := p.expectIdentifierText()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindIn); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForLoop{VarName: varName, Iterable: iterable, Body: body}, nil
}

func (p *Parser) parseExprStatement() (Stmt, error) {
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}
	return &ExprStatement{X: x}, nil
}

// Expression grammar, lowest to highest precedence:
//   logicalOr -> logicalAnd -> comparison -> additive -> callChain -> primary

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() (Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.check(KindPipePipe) {
		p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Left: left, Operator: KindPipePipe, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(KindAmpAmp) {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Left: left, Operator: KindAmpAmp, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.check(KindEq) || p.check(KindNotEq) {
		op := p.advance().Kind
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseCallChain()
	if err != nil {
		return nil, err
	}
	for p.check(KindPlus) || p.check(KindMinus) || p.check(KindStar) ||
		p.check(KindSlash) || p.check(KindCaret) {
		op := p.advance().Kind
		right, err := p.parseCallChain()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseCallChain() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peekKind() {
		case KindDot:
			p.advance()
			name, err := p.expectIdentifierText()
			if err != nil {
				return nil, err
			}
			if p.check(KindLParen) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				fc := &FunctionCall{Object: expr, Name: name, Args: args}
				p.applyErrorOperator(fc)
				expr = fc
			} else {
				expr = &PropertyAccess{Object: expr, Property: name}
			}
		case KindDoubleColon:
			p.advance()
			name, err := p.expectIdentifierText()
			if err != nil {
				return nil, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			fc := &FunctionCall{Object: expr, Namespaced: true, Name: name, Args: args}
			p.applyErrorOperator(fc)
			expr = fc
		case KindLParen:
			ident, ok := expr.(*Identifier)
			if !ok {
				return expr, nil
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			fc := &FunctionCall{Name: ident.Name, Args: args}
			p.applyErrorOperator(fc)
			expr = fc
		case KindLBracket:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(KindRBracket); err != nil {
				return nil, err
			}
			expr = &ArrayAccess{Array: expr, Index: index}
		default:
			return expr, nil
		}
	}
}

// applyErrorOperator consumes a trailing `?` or `!!` immediately following a
// just-parsed call, setting exactly one of TryOperator/UnwrapOperator.
func (p *Parser) applyErrorOperator(fc *FunctionCall) {
	fc.Line, fc.Column = p.cur().Line, p.cur().Column
	if p.check(KindQuestion) {
		p.advance()
		fc.TryOperator = true
	} else if p.check(KindDoubleBang) {
		p.advance()
		fc.UnwrapOperator = true
	}
}

func (p *Parser) parseArgs() ([]Expr, error) {
	if _, err := p.expect(KindLParen); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.check(KindRParen) {
		if len(args) > 0 {
			if _, err := p.expect(KindComma); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	p.advance() // )
	return args, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case KindString:
		p.advance()
		return &StringLiteral{Value: tok.Text}, nil
	case KindNumber:
		p.advance()
		return &NumberLiteral{Value: tok.Number}, nil
	case KindIdentifier:
		p.advance()
		return &Identifier{Name: tok.Text}, nil
	case KindLBracket:
		p.advance()
		var elems []Expr
		for !p.check(KindRBracket) {
			if len(elems) > 0 {
				if _, err := p.expect(KindComma); err != nil {
					return nil, err
				}
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		p.advance() // ]
		return &ArrayLiteral{Elements: elems}, nil
	case KindLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(KindRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, newParseError(tok, "unexpected token in expression: %s", tok.Kind)
	}
}
