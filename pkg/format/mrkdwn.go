package format

import (
	"bytes"
	"strings"

	"github.com/russross/blackfriday"
)

const mrkdwnExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
	blackfriday.EXTENSION_FENCED_CODE |
	blackfriday.EXTENSION_AUTOLINK |
	blackfriday.EXTENSION_STRIKETHROUGH |
	blackfriday.EXTENSION_SPACE_HEADERS

// Mrkdwn renders model markdown as Slack mrkdwn: *bold*, _italic_,
// ~strike~, <url|text> links, and &<> escaped in plain text.
func Mrkdwn(markdown string) string {
	output := blackfriday.Markdown([]byte(markdown), &mrkdwnRenderer{}, mrkdwnExtensions)
	return strings.TrimSpace(string(output))
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

type mrkdwnRenderer struct{}

func blockSep(out *bytes.Buffer) {
	if out.Len() > 0 {
		out.WriteString("\n\n")
	}
}

func (r *mrkdwnRenderer) BlockCode(out *bytes.Buffer, text []byte, lang string) {
	blockSep(out)
	out.WriteString("```\n")
	out.WriteString(mrkdwnEscaper.Replace(string(text)))
	out.WriteString("```")
}

func (r *mrkdwnRenderer) BlockQuote(out *bytes.Buffer, text []byte) {
	blockSep(out)
	quoted := strings.TrimRight(string(text), "\n")
	for i, line := range strings.Split(quoted, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString("> ")
		out.WriteString(line)
	}
}

func (r *mrkdwnRenderer) BlockHtml(out *bytes.Buffer, text []byte) {
	blockSep(out)
	out.WriteString(mrkdwnEscaper.Replace(string(text)))
}

func (r *mrkdwnRenderer) Header(out *bytes.Buffer, text func() bool, level int, id string) {
	blockSep(out)
	out.WriteString("*")
	marker := out.Len()
	if !text() {
		out.Truncate(marker - 1)
		return
	}
	out.WriteString("*")
}

func (r *mrkdwnRenderer) HRule(out *bytes.Buffer) {
	blockSep(out)
	out.WriteString("---")
}

func (r *mrkdwnRenderer) List(out *bytes.Buffer, text func() bool, flags int) {
	blockSep(out)
	marker := out.Len()
	if !text() {
		out.Truncate(marker)
	}
}

func (r *mrkdwnRenderer) ListItem(out *bytes.Buffer, text []byte, flags int) {
	if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteString("\n")
	}
	out.WriteString("• ")
	out.Write(bytes.TrimRight(text, "\n"))
}

func (r *mrkdwnRenderer) Paragraph(out *bytes.Buffer, text func() bool) {
	blockSep(out)
	marker := out.Len()
	if !text() {
		out.Truncate(marker)
	}
}

func (r *mrkdwnRenderer) Table(out *bytes.Buffer, header []byte, body []byte, columnData []int) {
	blockSep(out)
	out.Write(header)
	out.Write(bytes.TrimRight(body, "\n"))
}

func (r *mrkdwnRenderer) TableRow(out *bytes.Buffer, text []byte) {
	out.Write(bytes.TrimRight(text, " "))
	out.WriteString("\n")
}

func (r *mrkdwnRenderer) TableHeaderCell(out *bytes.Buffer, text []byte, flags int) {
	out.WriteString("*")
	out.Write(text)
	out.WriteString("* ")
}

func (r *mrkdwnRenderer) TableCell(out *bytes.Buffer, text []byte, flags int) {
	out.Write(text)
	out.WriteString(" ")
}

func (r *mrkdwnRenderer) Footnotes(out *bytes.Buffer, text func() bool) {
	blockSep(out)
	marker := out.Len()
	if !text() {
		out.Truncate(marker)
	}
}

func (r *mrkdwnRenderer) FootnoteItem(out *bytes.Buffer, name, text []byte, flags int) {
	out.Write(text)
}

func (r *mrkdwnRenderer) TitleBlock(out *bytes.Buffer, text []byte) {
	blockSep(out)
	out.WriteString(mrkdwnEscaper.Replace(string(text)))
}

func (r *mrkdwnRenderer) AutoLink(out *bytes.Buffer, link []byte, kind int) {
	if kind == blackfriday.LINK_TYPE_EMAIL {
		out.WriteString("<mailto:")
		out.Write(link)
		out.WriteString("|")
		out.Write(link)
		out.WriteString(">")
		return
	}
	out.WriteString("<")
	out.Write(link)
	out.WriteString(">")
}

func (r *mrkdwnRenderer) CodeSpan(out *bytes.Buffer, text []byte) {
	out.WriteString("`")
	out.WriteString(mrkdwnEscaper.Replace(string(text)))
	out.WriteString("`")
}

func (r *mrkdwnRenderer) DoubleEmphasis(out *bytes.Buffer, text []byte) {
	out.WriteString("*")
	out.Write(text)
	out.WriteString("*")
}

func (r *mrkdwnRenderer) Emphasis(out *bytes.Buffer, text []byte) {
	out.WriteString("_")
	out.Write(text)
	out.WriteString("_")
}

func (r *mrkdwnRenderer) Image(out *bytes.Buffer, link []byte, title []byte, alt []byte) {
	out.WriteString("<")
	out.Write(link)
	if len(alt) > 0 {
		out.WriteString("|")
		out.Write(alt)
	}
	out.WriteString(">")
}

func (r *mrkdwnRenderer) LineBreak(out *bytes.Buffer) {
	out.WriteString("\n")
}

func (r *mrkdwnRenderer) Link(out *bytes.Buffer, link []byte, title []byte, content []byte) {
	out.WriteString("<")
	out.Write(link)
	out.WriteString("|")
	out.Write(content)
	out.WriteString(">")
}

func (r *mrkdwnRenderer) RawHtmlTag(out *bytes.Buffer, tag []byte) {
	out.WriteString(mrkdwnEscaper.Replace(string(tag)))
}

func (r *mrkdwnRenderer) TripleEmphasis(out *bytes.Buffer, text []byte) {
	out.WriteString("*_")
	out.Write(text)
	out.WriteString("_*")
}

func (r *mrkdwnRenderer) StrikeThrough(out *bytes.Buffer, text []byte) {
	out.WriteString("~")
	out.Write(text)
	out.WriteString("~")
}

func (r *mrkdwnRenderer) FootnoteRef(out *bytes.Buffer, ref []byte, id int) {
	out.Write(ref)
}

func (r *mrkdwnRenderer) Entity(out *bytes.Buffer, entity []byte) {
	out.Write(entity)
}

func (r *mrkdwnRenderer) NormalText(out *bytes.Buffer, text []byte) {
	out.WriteString(mrkdwnEscaper.Replace(string(text)))
}

func (r *mrkdwnRenderer) DocumentHeader(out *bytes.Buffer) {}

func (r *mrkdwnRenderer) DocumentFooter(out *bytes.Buffer) {}

func (r *mrkdwnRenderer) GetFlags() int { return 0 }
