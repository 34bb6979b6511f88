package markup

import (
	"fmt"
	"reflect"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/flosch/pongo2/v6"
)

func init() {
	pongo2.SetAutoescape(false)

	must(pongo2.ReplaceTag("include", includeParser))
	must(pongo2.RegisterTag("include_section", includeSectionParser))
	must(pongo2.ReplaceTag("for", loopParser))
}

func must(err error) {
	if err != nil {
		panic("markup: " + err.Error())
	}
}

// includeNode is {% include path %} or {% include_section path, section %}.
// Expansion is delegated to the Scope of the running execution.
type includeNode struct {
	token   *pongo2.Token
	path    pongo2.IEvaluator
	section pongo2.IEvaluator
}

func includeParser(_ *pongo2.Parser, start *pongo2.Token, args *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	path, err := args.ParseExpression()
	if err != nil {
		return nil, err
	}
	if args.Remaining() > 0 {
		return nil, args.Error("include takes a single path.", nil)
	}
	return &includeNode{token: start, path: path}, nil
}

func includeSectionParser(_ *pongo2.Parser, start *pongo2.Token, args *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	path, err := args.ParseExpression()
	if err != nil {
		return nil, err
	}
	if args.Match(pongo2.TokenSymbol, ",") == nil {
		return nil, args.Error("include_section expects a path and a section name.", nil)
	}
	section, err := args.ParseExpression()
	if err != nil {
		return nil, err
	}
	if args.Remaining() > 0 {
		return nil, args.Error("Malformed include_section arguments.", nil)
	}
	return &includeNode{token: start, path: path, section: section}, nil
}

func (n *includeNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	st, ok := ctx.Public[stateKey].(*execState)
	if !ok {
		return ctx.Error("include used outside of a prompt evaluation", n.token)
	}

	path, err := n.path.Evaluate(ctx)
	if err != nil {
		return err
	}
	target := domain.Target{Path: path.String()}
	if target.Path == "" {
		return ctx.Error("include path is empty", n.token)
	}
	if n.section != nil {
		section, err := n.section.Evaluate(ctx)
		if err != nil {
			return err
		}
		if target.Section = section.String(); target.Section == "" {
			return ctx.Error("include_section name is empty", n.token)
		}
	}

	text, ierr := st.include(target)
	if ierr != nil {
		return ctx.OrigError(ierr, n.token)
	}
	if _, werr := w.WriteString(text); werr != nil {
		return ctx.OrigError(werr, n.token)
	}
	return nil
}

// loopNode replaces pongo2's for tag: mappings iterate in key order, the loop
// variable is called loop, and else is accepted in place of empty.
type loopNode struct {
	token    *pongo2.Token
	key      string
	value    string
	seq      pongo2.IEvaluator
	reversed bool
	body     *pongo2.NodeWrapper
	empty    *pongo2.NodeWrapper
}

func loopParser(doc *pongo2.Parser, start *pongo2.Token, args *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	n := &loopNode{token: start}

	key := args.MatchType(pongo2.TokenIdentifier)
	if key == nil {
		return nil, args.Error("Expected a loop variable.", nil)
	}
	n.key = key.Val
	if args.Match(pongo2.TokenSymbol, ",") != nil {
		value := args.MatchType(pongo2.TokenIdentifier)
		if value == nil {
			return nil, args.Error("Expected a second loop variable.", nil)
		}
		n.value = value.Val
	}
	if args.Match(pongo2.TokenKeyword, "in") == nil {
		return nil, args.Error("Expected keyword 'in'.", nil)
	}

	seq, err := args.ParseExpression()
	if err != nil {
		return nil, err
	}
	n.seq = seq
	n.reversed = args.Match(pongo2.TokenIdentifier, "reversed") != nil
	if args.Remaining() > 0 {
		return nil, args.Error("Malformed for-loop arguments.", nil)
	}

	body, end, err := doc.WrapUntilTag("else", "empty", "endfor")
	if err != nil {
		return nil, err
	}
	if end.Count() > 0 {
		return nil, end.Error("Arguments not allowed here.", nil)
	}
	n.body = body

	if body.Endtag != "endfor" {
		empty, end, err := doc.WrapUntilTag("endfor")
		if err != nil {
			return nil, err
		}
		if end.Count() > 0 {
			return nil, end.Error("Arguments not allowed here.", nil)
		}
		n.empty = empty
	}
	return n, nil
}

func (n *loopNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	seq, err := n.seq.Evaluate(ctx)
	if err != nil {
		return err
	}

	kind := reflect.Invalid
	if !seq.IsNil() {
		kind = reflect.Indirect(reflect.ValueOf(seq.Interface())).Kind()
	}
	isMap := kind == reflect.Map
	if n.value != "" && kind != reflect.Invalid && !isMap {
		return ctx.Error(fmt.Sprintf("cannot loop over %s with two variables: it is not a mapping", kind), n.token)
	}

	loopCtx := pongo2.NewChildExecutionContext(ctx)
	var loopErr *pongo2.Error
	seq.IterateOrder(func(idx, count int, key, value *pongo2.Value) bool {
		loopCtx.Private[n.key] = pongo2.AsValue(key.Interface())
		if n.value != "" && value != nil {
			loopCtx.Private[n.value] = pongo2.AsValue(value.Interface())
		}
		loopCtx.Private["loop"] = map[string]any{
			"index":     idx + 1,
			"index0":    idx,
			"revindex":  count - idx,
			"revindex0": count - idx - 1,
			"first":     idx == 0,
			"last":      idx == count-1,
			"length":    count,
		}
		if err := n.body.Execute(loopCtx, w); err != nil {
			loopErr = err
			return false
		}
		return true
	}, func() {
		if n.empty != nil {
			loopErr = n.empty.Execute(ctx, w)
		}
	}, n.reversed, isMap)
	return loopErr
}
