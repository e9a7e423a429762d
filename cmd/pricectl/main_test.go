package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const exampleCatalog = "../../internal/catalogfile/testdata/catalog.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"pricectl"}, args...))
	return out.String(), err
}

func TestQueryFromCatalogFile(t *testing.T) {
	out, err := run(t, "query", "--catalog", exampleCatalog, "--deepseek-key", "", "GT10S", "A级")
	require.NoError(t, err)
	assert.Contains(t, out, "GT10S")
	assert.Contains(t, out, "0.70")
}

func TestQueryAmbiguousThenPick(t *testing.T) {
	out, err := run(t, "query", "--catalog", exampleCatalog, "--deepseek-key", "", "GT10 C级")
	require.NoError(t, err)
	assert.Contains(t, out, "GT10P")
	assert.Contains(t, out, "GT10S")
	assert.Contains(t, out, "--pick")

	out, err = run(t, "query", "--catalog", exampleCatalog, "--deepseek-key", "", "--pick", "2", "GT10 C级")
	require.NoError(t, err)
	assert.Contains(t, out, "GT10S")
	assert.Contains(t, out, "0.80")
	assert.NotContains(t, out, "--pick")
}

func TestQueryDomainErrorIsNotFatal(t *testing.T) {
	out, err := run(t, "query", "--catalog", exampleCatalog, "--deepseek-key", "", "XYZ999")
	require.NoError(t, err)
	assert.Contains(t, out, "[product_not_found]")
}

func TestQueryRequiresText(t *testing.T) {
	_, err := run(t, "query", "--catalog", exampleCatalog)
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "--file", exampleCatalog)
	require.NoError(t, err)
	assert.Contains(t, out, "3 products OK")

	_, err = run(t, "validate", "--file", "testdata/missing.yaml")
	assert.Error(t, err)
}

func TestSeedNeedsDatabaseConfig(t *testing.T) {
	t.Setenv("DB_HOST", "")
	_, err := run(t, "seed", "--file", exampleCatalog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration incomplete")
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := run(t, "hash-password", "pa55")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pa55")))

	_, err = run(t, "hash-password")
	assert.Error(t, err)
}
