package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const proposalYAML = `title: Escapade marocaine
price: "1000€"
itinerary:
  - day: J1
    date: 10/05
    program: Arrivée
    nightAt: Paris
    hotel: Hotel A
inclus:
  - Petit-déjeuner
exclus:
  - Vols
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDocumentYAMLAndJSON(t *testing.T) {
	doc, err := LoadDocument(writeFile(t, "p.yaml", proposalYAML))
	require.NoError(t, err)
	assert.Equal(t, "Escapade marocaine", doc.Title)
	require.Len(t, doc.Itinerary, 1)
	assert.Equal(t, "Hotel A", doc.Itinerary[0].Hotel)
	assert.NotEmpty(t, doc.Itinerary[0].ID)
	assert.Equal(t, "Itinéraire", doc.ItineraryHeading, "defaults fill absent keys")

	doc, err = LoadDocument(writeFile(t, "p.json", `{"title":"Json","inclus":["A"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Json", doc.Title)
	assert.Equal(t, []string{"A"}, doc.Included)

	_, err = LoadDocument(writeFile(t, "bad.json", `{"title":`))
	assert.Error(t, err)
}

func TestLoadOverlay(t *testing.T) {
	o, err := LoadOverlay(writeFile(t, "o.yaml", "colors:\n  primary: \"#000000\"\ntypography:\n  baseSize: 18\n"))
	require.NoError(t, err)
	assert.Equal(t, "#000000", o.Colors["primary"])
	assert.Equal(t, 18.0, o.Typography.BaseSize)
}

func TestResolveFormat(t *testing.T) {
	f, err := resolveFormat("", "out.PDF")
	require.NoError(t, err)
	assert.Equal(t, "pdf", f)
	f, err = resolveFormat("", "")
	require.NoError(t, err)
	assert.Equal(t, "html", f)
	_, err = resolveFormat("docx", "")
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	in := writeFile(t, "p.yaml", proposalYAML)

	cmd := NewRenderCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--in", in, "--hide", "footer"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "J1 • 10/05")
	assert.Contains(t, stdout.String(), "Nuit à Paris • Hotel A")
	assert.NotContains(t, stdout.String(), "<footer>")

	out := filepath.Join(t.TempDir(), "proposition-voyage.pdf")
	cmd = NewRenderCommand()
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--in", in, "--out", out, "--share-url", "https://voyage.example/p/1"})
	require.NoError(t, cmd.Execute())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
