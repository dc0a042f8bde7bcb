package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotHTML = `<html><body>
<section id="results">
  <article><h2><span>First</span></h2><time datetime="2021-03-04T05:06:07.000Z">4.3.</time></article>
  <article><h2><span>Second</span></h2></article>
  <div><button>Lataa lisää</button></div>
</section>
</body></html>`

func TestSnapshotSession(t *testing.T) {
	ctx := context.Background()
	s := &Snapshot{}
	require.NoError(t, s.Load(strings.NewReader(snapshotHTML)))

	el, ok, err := s.Find(ctx, "#results > article:nth-of-type(1) > h2 > span")
	require.NoError(t, err)
	require.True(t, ok)

	text, err := s.Text(ctx, el)
	require.NoError(t, err)
	assert.Equal(t, "First", text)

	_, ok, err = s.Find(ctx, "#results > article:nth-of-type(3)")
	require.NoError(t, err)
	assert.False(t, ok, "missing element is absent, not an error")

	n, err := s.Count(ctx, "#results > article")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tm, ok, err := s.Find(ctx, "#results > article:nth-of-type(1) > time")
	require.NoError(t, err)
	require.True(t, ok)
	value, ok, err := s.Attribute(ctx, tm, "datetime")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2021-03-04T05:06:07.000Z", value)

	_, ok, err = s.Attribute(ctx, tm, "title")
	require.NoError(t, err)
	assert.False(t, ok)

	button, ok, err := s.Find(ctx, "#results > div > button")
	require.NoError(t, err)
	require.True(t, ok)
	assert.ErrorIs(t, s.Click(ctx, button), ErrReadOnly)

	html, err := s.OuterHTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Lataa lisää")
}

func TestSnapshotNavigate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(snapshotHTML), 0644))

	s, err := SnapshotOpener{}.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Navigate(context.Background(), "file://"+path))
	n, err := s.Count(context.Background(), "article")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Error(t, s.Navigate(context.Background(), filepath.Join(t.TempDir(), "missing.html")))
}

func TestSnapshotWithoutDocument(t *testing.T) {
	s := &Snapshot{}
	_, _, err := s.Find(context.Background(), "article")
	assert.Error(t, err)
}

func TestBuildAllocatorOptions(t *testing.T) {
	base := len(BuildAllocatorOptions(ChromeOptions{}))
	full := BuildAllocatorOptions(ChromeOptions{
		ExecPath:     "/usr/bin/chromium",
		UserAgent:    "headlines-test",
		WindowWidth:  800,
		WindowHeight: 600,
	})
	assert.Equal(t, base+3, len(full))
}
