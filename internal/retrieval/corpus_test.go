package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kura/internal/embedding"
	"github.com/hyperjump/kura/internal/models"
)

const (
	corpusDimensions = 1024
	corpusTopK       = 3
)

type corpusDoc struct {
	file    string
	phrase  string
	content string
}

var corpusDocs = []corpusDoc{
	{"python.txt", "Python programming language", "Python is a high-level programming language. Python programming language is used for web development and data science."},
	{"kubernetes.md", "Kubernetes orchestration", "Kubernetes is an open-source platform. Kubernetes orchestration automates deployment and scaling of workloads."},
	{"react.md", "React hooks and components", "React is a JavaScript library. React hooks and components enable building user interfaces."},
	{"golang.txt", "Go goroutines channels", "Go is a statically typed language. Concurrency in Go uses goroutines and channels."},
	{"postgres.txt", "PostgreSQL relational database", "PostgreSQL is an advanced relational database. PostgreSQL supports JSON and full-text search."},
	{"docker.md", "Docker container images", "Docker builds and ships applications. Docker container images are portable across environments."},
	{"graphql.txt", "GraphQL query language", "GraphQL is a query language for APIs. GraphQL lets clients request exactly what they need."},
	{"redis.txt", "Redis in-memory cache", "Redis is an in-memory data store. Redis in-memory cache is used for sessions and caching."},
	{"lambda.md", "AWS Lambda serverless", "AWS Lambda runs code without servers. AWS Lambda serverless functions scale automatically."},
	{"terraform.txt", "Terraform infrastructure as code", "Terraform manages cloud infrastructure. Terraform infrastructure as code is declarative."},
	{"grpc.txt", "gRPC remote procedure calls", "gRPC is a high-performance RPC framework. gRPC remote procedure calls use HTTP/2 and protobuf."},
	{"oauth.md", "OAuth authorization framework", "OAuth is an authorization framework. OAuth enables secure delegated access for third parties."},
	{"git.txt", "Git version control", "Git is a distributed version control system. Git tracks changes in source code."},
	{"kafka.md", "Apache Kafka streaming", "Apache Kafka is a distributed event platform. Apache Kafka streaming handles high throughput."},
	{"nginx.txt", "Nginx reverse proxy", "Nginx is a web server and reverse proxy. Nginx balances load and serves static files."},
	{"bcrypt.txt", "password hashing bcrypt", "Passwords must be hashed. Password hashing with bcrypt resists rainbow tables."},
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, d := range corpusDocs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, d.file), []byte(d.content), 0644))
	}
	return dir
}

func topSources(results []*models.ScoredPassage) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.SourceID
	}
	return out
}

func TestStore_CorpusQueries(t *testing.T) {
	ctx := context.Background()
	docs := writeCorpus(t)
	indexDir := filepath.Join(t.TempDir(), "index")

	built := NewStore(embedding.NewMockClient(corpusDimensions))
	report, err := built.LoadOrBuild(ctx, LoadOrBuildOptions{IndexDir: indexDir, DocDir: docs, ChunkSize: 500, Overlap: 50})
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, len(corpusDocs), report.Documents)
	assert.Equal(t, len(corpusDocs), report.Passages)

	loaded := NewStore(embedding.NewMockClient(corpusDimensions))
	report, err = loaded.LoadOrBuild(ctx, LoadOrBuildOptions{IndexDir: indexDir, DocDir: docs, ChunkSize: 500, Overlap: 50})
	require.NoError(t, err)
	assert.Nil(t, report)

	for _, d := range corpusDocs {
		t.Run(strings.TrimSuffix(d.file, filepath.Ext(d.file)), func(t *testing.T) {
			fromBuild, err := built.Search(ctx, d.phrase, corpusTopK)
			require.NoError(t, err)
			require.Len(t, fromBuild, corpusTopK)
			assert.Contains(t, topSources(fromBuild), d.file, "query %q", d.phrase)

			fromDisk, err := loaded.Search(ctx, d.phrase, corpusTopK)
			require.NoError(t, err)
			assert.Equal(t, topSources(fromBuild), topSources(fromDisk))
			for i := range fromBuild {
				assert.InDelta(t, fromBuild[i].Score, fromDisk[i].Score, 1e-9)
			}
		})
	}
}

func TestStore_CorpusSelfQueryScoresOne(t *testing.T) {
	ctx := context.Background()
	s := NewStore(embedding.NewMockClient(corpusDimensions))
	_, err := s.BuildFromDirectory(ctx, writeCorpus(t), 500, 50)
	require.NoError(t, err)

	for _, d := range corpusDocs[:4] {
		results, err := s.Search(ctx, d.content, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, d.file, results[0].SourceID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	}
}
