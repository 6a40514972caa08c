// Package testutil builds a small Genesis data tree for tests and serves it
// over HTTP with per-path request counting.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Fixture paths.
const (
	BooksPath        = "metadata/books.json"
	CommentatorsPath = "metadata/commentators.json"
	ParashasPath     = "metadata/parashas.json"
	StructurePath    = "metadata/torah-structure.json"
	LexiconPath      = "metadata/hebrew-lexicon.json"
	BookMetaPath     = "genesis/metadata.json"
	NoachMetaPath    = "genesis/noach/metadata.json"

	// Beresheet 1:1 exists as a verse file only.
	VerseFile1x1 = "genesis/beresheet/beresheet-001-001.json"
	// Noach 6:9 exists as a verse file and inside the chapter file.
	VerseFile6x9 = "genesis/noach/noach-006-009.json"
	// Noach 6:10 exists only inside the chapter file.
	NoachChapter6 = "genesis/noach/chapter-006.json"
	// Beresheet chapter 6 (verses 1-8) lives in its parasha directory.
	BeresheetChapter6 = "genesis/beresheet/chapter-006.json"
	// Chapter 7 exists only in the legacy book-level layout.
	LegacyChapter7 = "genesis/chapter-007.json"
)

// Files returns the fixture tree as relative path → JSON content.
func Files() map[string]string {
	return map[string]string{
		BooksPath: `{
  "books": [
    {"id":"genesis","english":"Genesis","hebrew":"בראשית","russian":"Бытие","transliteration":"Bereshit","chapters":50,"totalVerses":1533,"availableParashas":["beresheet","noach"]}
  ],
  "totalBooks": 1, "totalChapters": 50, "totalVerses": 1533, "totalParashas": 12
}`,
		CommentatorsPath: `{"commentators":[
  {"id":"rashi","name":"Раши","hebrewName":"רש״י","fullName":"Рабби Шломо Ицхаки","years":"1040-1105","description":"Классический комментатор"},
  {"id":"ramban","name":"Рамбан","hebrewName":"רמב״ן","fullName":"Рабби Моше бен Нахман","years":"1194-1270","description":"Философ и каббалист"}
]}`,
		ParashasPath: `{
  "genesis": [
    {"id":"beresheet","number":1,"hebrew":"בראשית","english":"Bereshit","startChapter":1,"endChapter":6,"endVerse":8},
    {"id":"noach","number":2,"hebrew":"נח","english":"Noach","startChapter":6,"endChapter":11,"startVerse":9,"endVerse":32},
    {"id":"lech_lecha","number":3,"hebrew":"לך לך","english":"Lech Lecha","startChapter":12,"endChapter":17}
  ]
}`,
		StructurePath: `{"books":{"genesis":{"chapters":50,"totalVerses":1533,"chaptersData":{
  "1":{"verses":31},"2":{"verses":25},"3":{"verses":24},"4":{"verses":26},"5":{"verses":32},
  "6":{"verses":22},"7":{"verses":24},"8":{"verses":22},"9":{"verses":29},"10":{"verses":32},"11":{"verses":32},
  "6_beresheet":{"verses":8,"startVerse":1,"endVerse":8},
  "6_noach":{"verses":14,"startVerse":9,"endVerse":22}
}}}}`,
		LexiconPath: `{
  "נח": {"root":"נוח","meanings":[{"meaning":"Ной","context":"имя собственное","grammar":"существительное"}],"frequency":46},
  "ברא": {"root":"ברא","meanings":[{"meaning":"сотворил","grammar":"глагол"}],"frequency":48,"relatedWords":["בריאה"]}
}`,
		BookMetaPath: `{"book":"genesis","english":"Genesis","hebrew":"בראשית","russian":"Бытие","transliteration":"Bereshit",
  "totalChapters":50,"totalVerses":1533,"availableChapters":[1,6,7],"availableParashas":["beresheet","noach"]}`,
		NoachMetaPath: `{"id":"noach","bookId":"genesis","number":2,"availableChapters":[6,7],"totalChapters":6,"totalVerses":153}`,
		VerseFile1x1: `{"book":"genesis","parasha":"beresheet","chapter":1,"verse":1,
  "hebrew":["בְּרֵאשִׁית","בָּרָא","אֱלֹהִים"],
  "russian":"В начале сотворил Бог",
  "words":[
    {"position":1,"hebrew":"בְּרֵאשִׁית","transliteration":"bereshit","root":"ראש","translations":[{"meaning":"в начале"}],
     "pardes":{"pshat":{"meaning":"в начале"},"drash":[{"meaning":"ради Торы"},{"meaning":"ради Израиля"}]}},
    {"position":2,"hebrew":"בָּרָא","transliteration":"bara","translations":["сотворил"]},
    {"position":3,"hebrew":"אֱלֹהִים","transliteration":"elohim","translations":[{"meaning":"Бог"}]}
  ],
  "commentaries":{"rashi":"Сказал рабби Ицхак..."},
  "metadata":{"lastUpdated":"2024-01-01T00:00:00Z","dataVersion":"3.0.0","completeness":{"words":"complete","translations":"pardes","commentaries":"complete"}}
}`,
		VerseFile6x9: `{"book":"genesis","parasha":"noach","chapter":6,"verse":9,
  "hebrew":["אֵלֶּה","תּוֹלְדֹת","נֹחַ"],
  "russian":"Вот родословие Ноаха",
  "words":[
    {"position":1,"hebrew":"אֵלֶּה","transliteration":"eleh","translations":[{"meaning":"вот"}]},
    {"position":2,"hebrew":"תּוֹלְדֹת","transliteration":"toldot","translations":[{"meaning":"родословие"}]},
    {"position":3,"hebrew":"נֹחַ","transliteration":"noach","translations":[{"meaning":"Ноах"}]}
  ],
  "metadata":{"lastUpdated":"2024-01-01T00:00:00Z","dataVersion":"3.0.0","completeness":{"words":"complete","translations":"basic","commentaries":"partial"},"convertedFrom":"chapter-006.json"}
}`,
		NoachChapter6: `{"book":"genesis","parasha":"noach","chapter":6,"totalVerses":14,
  "verses":[
    {"number":9,"hebrew":["אֵלֶּה","תּוֹלְדֹת","נֹחַ"],"russian":"Вот родословие Ноаха",
     "words":[
       {"position":1,"hebrew":"אֵלֶּה","transliteration":"eleh","translations":[{"meaning":"вот"}]},
       {"position":2,"hebrew":"תּוֹלְדֹת","transliteration":"toldot","translations":[{"meaning":"родословие"}]},
       {"position":3,"hebrew":"נֹחַ","transliteration":"noach","translations":[{"meaning":"Ноах"}]}
     ]},
    {"number":10,"hebrew":["וַיּוֹלֶד","נֹחַ"],"russian":"И родил Ноах",
     "words":[
       {"position":1,"hebrew":"וַיּוֹלֶד","transliteration":"vayoled","translations":[{"meaning":"и родил"}]},
       {"position":2,"hebrew":"נֹחַ","transliteration":"noach","translations":[{"meaning":"Ноах"}]}
     ],
     "commentaries":{"rashi":"Три сына"}}
  ],
  "metadata":{"lastUpdated":"2023-06-01T00:00:00Z","dataVersion":"2.0.0","completeness":{"words":"partial","translations":"basic","commentaries":"partial"}}
}`,
		BeresheetChapter6: `{"book":"genesis","parasha":"beresheet","chapter":6,"totalVerses":8,
  "verses":[
    {"number":8,"hebrew":["וְנֹחַ","מָצָא","חֵן"],"russian":"А Ноах обрел милость",
     "words":[{"position":1,"hebrew":"וְנֹחַ","transliteration":"venoach","translations":[{"meaning":"а Ноах"}]}]}
  ]
}`,
		LegacyChapter7: `{"book":"genesis","chapter":7,"totalVerses":24,
  "verses":[
    {"number":1,"hebrew":["וַיֹּאמֶר","יְהוָה"],"russian":"И сказал Господь",
     "words":[{"position":1,"hebrew":"וַיֹּאמֶר","transliteration":"vayomer","translations":[{"meaning":"и сказал"}]}]}
  ]
}`,
	}
}

// WriteTree writes files under dir.
func WriteTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// DataDir writes the fixture tree to a fresh temporary directory.
func DataDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, Files())
	return dir
}

// Server serves a directory and counts requests per path.
type Server struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
	fail map[string]int
}

// NewServer serves root under prefix (e.g. "/torah-v2/data/").
func NewServer(t testing.TB, root, prefix string) *Server {
	t.Helper()
	s := &Server{hits: map[string]int{}, fail: map[string]int{}}
	files := http.StripPrefix(strings.TrimSuffix(prefix, "/"), http.FileServer(http.Dir(root)))
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, prefix)
		s.mu.Lock()
		s.hits[rel]++
		status := s.fail[rel]
		s.mu.Unlock()
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		files.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Hits returns how many requests reached rel.
func (s *Server) Hits(rel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[rel]
}

// Total returns the number of requests served.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.hits {
		n += c
	}
	return n
}

// FailWith makes requests for rel answer with status until reset with 0.
func (s *Server) FailWith(rel string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, rel)
		return
	}
	s.fail[rel] = status
}
