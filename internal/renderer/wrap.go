package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/types"
	"github.com/conneroisu/pages/pkg/pages"
)

// PropsScriptID is the id of the script element holding the hydration props.
const PropsScriptID = "__PAGES_PROPS__"

// headTags are the tag types a HeadConfig may list. Anything else belongs in
// HeadConfig.Other.
var headTags = map[string]atom.Atom{
	"base":     atom.Base,
	"link":     atom.Link,
	"meta":     atom.Meta,
	"noscript": atom.Noscript,
	"script":   atom.Script,
	"style":    atom.Style,
	"template": atom.Template,
}

// Wrap renders the page component into the server render template and
// injects the head, the document language and the hydration scripts.
func (r *Renderer) Wrap(ctx context.Context, tmpl *types.TemplateModuleInternal, props pages.TemplateRenderProps, templates *PluginRenderTemplates) (string, error) {
	module := tmpl.Module
	name := tmpl.Config().Name

	component := module.Default(props)
	if component == nil {
		return "", errors.NewContractError(
			errors.ErrCodeRenderFailed,
			fmt.Sprintf("default export returned no component in template '%s'", name),
		).WithTemplate(name)
	}

	var app bytes.Buffer
	if err := component.Render(ctx, &app); err != nil {
		return "", errors.WrapContract(err, errors.ErrCodeRenderFailed,
			fmt.Sprintf("render failed in template '%s'", name), name)
	}

	var head *pages.HeadConfig
	if module.GetHeadConfig != nil {
		var err error
		head, err = module.GetHeadConfig(props)
		if err != nil {
			return "", errors.WrapContract(err, errors.ErrCodeRenderFailed,
				fmt.Sprintf("getHeadConfig failed in template '%s'", name), name)
		}
	}

	if !strings.Contains(templates.Server, AppHTMLPlaceholder) {
		return "", errors.NewContractError(
			errors.ErrCodeRenderFailed,
			"server render template is missing the "+AppHTMLPlaceholder+" placeholder",
		).WithTemplate(name)
	}
	serverHTML := strings.Replace(templates.Server, AppHTMLPlaceholder, app.String(), 1)

	doc, err := html.Parse(strings.NewReader(serverHTML))
	if err != nil {
		return "", errors.WrapContract(err, errors.ErrCodeRenderFailed, "failed to parse rendered page", name)
	}

	root := findElement(doc, atom.Html)
	headNode := findElement(doc, atom.Head)
	body := findElement(doc, atom.Body)
	if root == nil || headNode == nil || body == nil {
		return "", errors.NewContractError(errors.ErrCodeRenderFailed, "rendered page has no document structure").WithTemplate(name)
	}

	setAttr(root, "lang", pages.GetLang(head, props))

	if head != nil {
		if err := r.injectHead(ctx, headNode, head, name); err != nil {
			return "", err
		}
	}

	if tmpl.Config().IsHydrated() && templates.Client != "" {
		if err := injectHydration(body, props, templates.Client); err != nil {
			return "", errors.WrapContract(err, errors.ErrCodeRenderFailed, "failed to serialize props", name)
		}
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return "", errors.WrapContract(err, errors.ErrCodeRenderFailed, "failed to render page", name)
	}
	return out.String(), nil
}

// injectHead prepends the head config to the head element.
func (r *Renderer) injectHead(ctx context.Context, headNode *html.Node, head *pages.HeadConfig, name string) error {
	charset := head.CharSet
	if charset == "" {
		charset = pages.DefaultCharSet
	}
	viewport := head.Viewport
	if viewport == "" {
		viewport = pages.DefaultViewport
	}

	nodes := []*html.Node{
		element(atom.Meta, html.Attribute{Key: "charset", Val: charset}),
		element(atom.Meta,
			html.Attribute{Key: "name", Val: "viewport"},
			html.Attribute{Key: "content", Val: viewport}),
	}

	if head.Title != "" {
		title := element(atom.Title)
		title.AppendChild(&html.Node{Type: html.TextNode, Data: head.Title})
		nodes = append(nodes, title)
	}

	for _, tag := range head.Tags {
		a, ok := headTags[tag.Type]
		if !ok {
			r.logger.Warn(ctx, nil,
				fmt.Sprintf("Tag type %s is unsupported by the Tag interface. Please use \"other\" to render this tag.", tag.Type),
				"template", name)
			continue
		}
		nodes = append(nodes, element(a, sortedAttributes(tag.Attributes)...))
	}

	if head.Other != "" {
		other, err := html.ParseFragment(strings.NewReader(head.Other), headNode)
		if err != nil {
			return errors.WrapContract(err, errors.ErrCodeRenderFailed, "failed to parse head other", name)
		}
		nodes = append(nodes, other...)
	}

	first := headNode.FirstChild
	for _, n := range nodes {
		headNode.InsertBefore(n, first)
	}
	return nil
}

// injectHydration appends the serialized props and the client module script
// to the body.
func injectHydration(body *html.Node, props pages.TemplateRenderProps, client string) error {
	data, err := json.Marshal(props)
	if err != nil {
		return err
	}

	propsScript := element(atom.Script,
		html.Attribute{Key: "id", Val: PropsScriptID},
		html.Attribute{Key: "type", Val: "application/json"})
	propsScript.AppendChild(&html.Node{Type: html.TextNode, Data: string(data)})

	clientScript := element(atom.Script,
		html.Attribute{Key: "type", Val: "module"},
		html.Attribute{Key: "src", Val: props.RelativePrefixToRoot + strings.TrimPrefix(client, "/")})

	body.AppendChild(propsScript)
	body.AppendChild(clientScript)
	return nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func sortedAttributes(attrs map[string]string) []html.Attribute {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]html.Attribute, 0, len(keys))
	for _, key := range keys {
		result = append(result, html.Attribute{Key: key, Val: attrs[key]})
	}
	return result
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
