package filter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/paperctl/paperless"
)

func intPtr(i int) *int { return &i }

func testDocument() Document {
	return Document{
		ID:            1,
		Title:         "Electricity Bill March",
		Content:       "Total due: 42.00 EUR",
		Created:       time.Now().AddDate(0, -2, 0),
		Added:         time.Now().AddDate(0, 0, -3),
		TagIDs:        []int{1, 2},
		TagNames:      []string{"Inbox", "Utilities"},
		Correspondent: "Power Co",
		DocumentType:  "Invoice",
		ASN:           17,
		MimeType:      "application/pdf",
		PageCount:     2,
	}
}

func generateTestDocuments(count int) []Document {
	docs := make([]Document, count)
	for i := range docs {
		docs[i] = Document{
			ID:        i + 1,
			Title:     fmt.Sprintf("Document %d", i+1),
			PageCount: i % 10,
			Created:   time.Now().AddDate(0, 0, -i),
		}
		if i%2 == 0 {
			docs[i].TagNames = []string{"even"}
			docs[i].TagIDs = []int{2}
		}
	}
	return docs
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `hasTag("inbox")`,
		},
		{
			name:        "empty expression",
			expression:  "   ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `hasTag("unclosed`,
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: `Title`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `isType("invoice") and PageCount > 1 and Created > monthsAgo(6)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)

			if tt.wantErr {
				require.Error(t, err)
				var cerr *CompilationError
				assert.ErrorAs(t, err, &cerr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, filter)
			assert.Equal(t, tt.expression, filter.Expression())
		})
	}
}

func TestFilterEvaluation(t *testing.T) {
	doc := testDocument()

	tests := []struct {
		name       string
		expression string
		want       bool
	}{
		{"has tag case insensitive", `hasTag("inbox")`, true},
		{"missing tag", `hasTag("archive")`, false},
		{"has any tag", `hasAnyTag("archive", "utilities")`, true},
		{"has no tags", `hasNoTags()`, false},
		{"correspondent", `from("power co")`, true},
		{"document type", `isType("Receipt")`, false},
		{"title contains", `contains(Title, "bill")`, true},
		{"content", `Content matches "\\d+\\.\\d{2}"`, true},
		{"created before", `Created < monthsAgo(1)`, true},
		{"added within days", `daysSince(Added) <= 7`, true},
		{"parse date", `Created > parseDate("2001-01-01")`, true},
		{"doc field", `Doc.ASN == 17 and Doc.MimeType == "application/pdf"`, true},
		{"tag list", `"Utilities" in Tags`, true},
		{"tag ids", `2 in TagIDs`, true},
		{"negation", `not hasTag("Utilities")`, false},
		{"starts with", `startsWith(Correspondent, "power")`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)
			require.NoError(t, err)

			assert.Equal(t, tt.want, filter.Evaluate(doc))
		})
	}
}

func TestFilterEvaluationError(t *testing.T) {
	filter, err := CompileFilter(`Tags[5] == "x"`)
	require.NoError(t, err)

	doc := testDocument()
	ok, err := filter.Match(doc)
	assert.False(t, ok)

	var eerr *EvaluationError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, doc.ID, eerr.DocumentID)

	assert.False(t, filter.Evaluate(doc))
}

func TestNewDocument(t *testing.T) {
	added := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	doc := &paperless.Document{
		ID:                  7,
		Title:               "Lease",
		Created:             "2024-03-01",
		Added:               &added,
		Tags:                []int{1, 3, 9},
		Correspondent:       intPtr(4),
		DocumentType:        intPtr(5),
		ArchiveSerialNumber: intPtr(12),
		Notes:               []paperless.Note{{ID: 1}, {ID: 2}},
	}
	names := &Names{
		Tags:           map[int]string{1: "Home", 3: "Contract"},
		Correspondents: map[int]string{4: "Landlord"},
		DocumentTypes:  map[int]string{5: "Contract"},
	}

	got := NewDocument(doc, names)

	assert.Equal(t, 7, got.ID)
	assert.Equal(t, []string{"Home", "Contract"}, got.TagNames)
	assert.Equal(t, []int{1, 3, 9}, got.TagIDs)
	assert.Equal(t, "Landlord", got.Correspondent)
	assert.Equal(t, "Contract", got.DocumentType)
	assert.Equal(t, 12, got.ASN)
	assert.Equal(t, 2, got.NoteCount)
	assert.Equal(t, added, got.Added)
	assert.Equal(t, 2024, got.Created.Year())

	bare := NewDocument(doc, nil)
	assert.Empty(t, bare.TagNames)
	assert.Empty(t, bare.Correspondent)
}

func TestConcurrentEvaluation(t *testing.T) {
	docs := generateTestDocuments(1000)

	filter, err := CompileFilter(`hasTag("even")`)
	require.NoError(t, err)

	evaluator := NewConcurrentEvaluator(WithWorkers(4), WithBatchSize(50))
	matches, err := evaluator.Evaluate(context.Background(), filter, docs)
	require.NoError(t, err)

	require.Len(t, matches, 500)
	for i, doc := range matches {
		assert.Equal(t, i*2+1, doc.ID, "matches keep input order")
	}
}

func TestConcurrentEvaluationCollectsErrors(t *testing.T) {
	docs := generateTestDocuments(300)

	// odd documents have no tags and fail to index
	filter, err := CompileFilter(`Tags[0] == "even"`)
	require.NoError(t, err)

	evaluator := NewConcurrentEvaluator(WithWorkers(3), WithBatchSize(10))
	matches, err := evaluator.Evaluate(context.Background(), filter, docs)
	require.Error(t, err)
	assert.Len(t, matches, 150)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 150)
}

func TestConcurrentEvaluationCancelled(t *testing.T) {
	docs := generateTestDocuments(1000)
	filter, err := CompileFilter(`true`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	evaluator := NewConcurrentEvaluator(WithWorkers(2), WithBatchSize(10))
	_, err = evaluator.Evaluate(ctx, filter, docs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchEvaluation(t *testing.T) {
	docs := generateTestDocuments(200)

	filters := make(map[string]CompiledFilter)
	for name, expression := range map[string]string{
		"even":   `hasTag("even")`,
		"long":   `PageCount >= 5`,
		"recent": `Created > daysAgo(10)`,
	} {
		f, err := CompileFilter(expression)
		require.NoError(t, err)
		filters[name] = f
	}

	evaluator := NewConcurrentEvaluator()
	results, err := evaluator.EvaluateBatch(context.Background(), filters, docs)
	require.NoError(t, err)

	assert.Len(t, results["even"], 100)
	assert.Len(t, results["long"], 100)
	assert.Len(t, results["recent"], 10)
}

func TestFilterManager(t *testing.T) {
	manager := NewManager()

	require.NoError(t, manager.RegisterFilters(map[string]string{
		"inbox":    `hasTag("inbox")`,
		"invoices": `isType("invoice")`,
	}))
	assert.Equal(t, []string{"inbox", "invoices"}, manager.ListFilters())

	err := manager.RegisterFilters(map[string]string{
		"ok":     `true`,
		"broken": `hasTag(`,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	_, exists := manager.GetFilter("ok")
	assert.False(t, exists, "no filter is registered when one fails")

	docs := []Document{testDocument(), {ID: 2, DocumentType: "Receipt"}}

	matches, err := manager.EvaluateFilter(context.Background(), "inbox", docs)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].ID)

	_, err = manager.EvaluateFilter(context.Background(), "missing", docs)
	assert.ErrorIs(t, err, ErrFilterNotFound)

	all, err := manager.EvaluateAll(context.Background(), docs)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	selected, err := manager.EvaluateSelected(context.Background(), []string{"invoices"}, docs)
	require.NoError(t, err)
	assert.Len(t, selected, 1)

	_, err = manager.EvaluateSelected(context.Background(), []string{"invoices", "missing"}, docs)
	assert.ErrorIs(t, err, ErrFilterNotFound)

	manager.UnregisterFilter("inbox")
	assert.Equal(t, []string{"invoices"}, manager.ListFilters())
}

func TestCacheEffectiveness(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`hasTag("a")`)
	require.NoError(t, err)
	second, err := compiler.Compile(`hasTag("a")`)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, compiler.Size())

	_, err = compiler.Compile(`hasTag("b")`)
	require.NoError(t, err)
	_, err = compiler.Compile(`hasTag("c")`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size(), "least recently used entry is evicted")

	third, err := compiler.Compile(`hasTag("a")`)
	require.NoError(t, err)
	assert.NotSame(t, first, third)

	compiler.Clear()
	assert.Equal(t, 0, compiler.Size())
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isLarge": func(pages int) bool { return pages > 100 },
	}))

	filter, err := compiler.Compile(`isLarge(PageCount)`)
	require.NoError(t, err)
	assert.False(t, filter.Evaluate(testDocument()))
	assert.True(t, filter.Evaluate(Document{PageCount: 250}))
}

func BenchmarkEvaluateConcurrent(b *testing.B) {
	docs := generateTestDocuments(10000)
	filter, err := CompileFilter(`hasTag("even") and PageCount > 3`)
	if err != nil {
		b.Fatal(err)
	}
	evaluator := NewConcurrentEvaluator()

	b.ResetTimer()
	for b.Loop() {
		if _, err := evaluator.Evaluate(context.Background(), filter, docs); err != nil {
			b.Fatal(err)
		}
	}
}
