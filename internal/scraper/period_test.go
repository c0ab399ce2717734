package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/uqam-horaire/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstCell(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tr>" + html + "</tr></table>"))
	require.NoError(t, err)
	cell := doc.Find("td").First()
	require.Equal(t, 1, cell.Length())
	return cell
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{name: "four tokens", text: "De\u00a013h30\u00a0à\u00a016h30", wantStart: "13h30", wantEnd: "16h30"},
		{name: "surrounding whitespace", text: "\n  De\u00a09h30\u00a0à\u00a012h30\n", wantStart: "9h30", wantEnd: "12h30"},
		{name: "three tokens", text: "13h30\u00a0à\u00a016h30", wantErr: true},
		{name: "plain spaces", text: "De 13h30 à 16h30", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parseTimeRange(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, schedule.ErrMalformedTimeField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestCellLines(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "two lines",
			html: "<td>Du 5 septembre 2022<br>au 12 décembre 2022</td>",
			want: []string{"Du 5 septembre 2022", "au 12 décembre 2022"},
		},
		{
			name: "formatting whitespace",
			html: "<td>\n   Du 5 septembre 2022\n   <br/>\n   au 12 décembre 2022\n</td>",
			want: []string{"Du 5 septembre 2022", "au 12 décembre 2022"},
		},
		{
			name: "trailing break",
			html: "<td>Du 5 septembre 2022<br>au 12 décembre 2022<br></td>",
			want: []string{"Du 5 septembre 2022", "au 12 décembre 2022"},
		},
		{
			name: "nested markup",
			html: "<td><strong>Du 5 septembre 2022</strong><br><em>au</em> 12 décembre 2022</td>",
			want: []string{"Du 5 septembre 2022", "au 12 décembre 2022"},
		},
		{
			name: "link content wins",
			html: `<td>ignored<a href="#">Du 5 septembre 2022<br>au 12 décembre 2022</a></td>`,
			want: []string{"Du 5 septembre 2022", "au 12 décembre 2022"},
		},
		{
			name: "single line",
			html: "<td>Le 5 septembre 2022</td>",
			want: []string{"Le 5 septembre 2022"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellLines(firstCell(t, tt.html)))
		})
	}
}

func TestCellText_PrefersFirstLink(t *testing.T) {
	cell := firstCell(t, `<td>Salle <a href="/a">A-1</a> <a href="/b">B-2</a></td>`)
	assert.Equal(t, "A-1", cellText(cell))

	cell = firstCell(t, `<td> Campus Centre-Ville </td>`)
	assert.Equal(t, " Campus Centre-Ville ", cellText(cell))
}

func TestParsePeriod_AmbiguousLocation(t *testing.T) {
	html := page(groupHTML("Groupe 10", "23 places", nil,
		periodRow("Lundi", validDates, validTimes, "A | B | Campus Centre-Ville", "Cours")))

	group, err := ParseGroup(firstGroup(t, html), AllFields)
	require.NoError(t, err)
	require.Len(t, group.Periods, 1)
	assert.Nil(t, group.Periods[0].Location)
}
