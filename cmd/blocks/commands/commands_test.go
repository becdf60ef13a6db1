package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fivetwenty-io/blocks-sdk/internal/auth"
	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userDocument = `{
	"data": {
		"id": "42",
		"type": "users",
		"attributes": {"email": "ada@example.com", "firstName": "Ada", "lastName": "Lovelace", "status": "active"},
		"relationships": {"role": {"data": {"type": "roles", "id": "r1"}}}
	},
	"included": [
		{"id": "r1", "type": "roles", "attributes": {"name": "admin"}}
	]
}`

func blockServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

func blocksConfig(urls map[string]string) string {
	var builder strings.Builder

	builder.WriteString("max_retries: 0\nblocks:\n")

	for name, url := range urls {
		fmt.Fprintf(&builder, "  %s: %s\n", name, url)
	}

	return builder.String()
}

func TestCommandTree(t *testing.T) {
	users := NewUsersCommand()
	assert.Equal(t, []string{"user"}, users.Aliases)
	assert.NotNil(t, findSubcommand(users, "list"))
	assert.NotNil(t, findSubcommand(users, "get"))

	orders := NewOrdersCommand()
	assert.NotNil(t, findSubcommand(orders, "list"))
	assert.NotNil(t, findSubcommand(orders, "get"))

	list := NewListCommand()
	for _, flag := range []string{"page", "per-page", "all", "include", "sort", "filter", "jq"} {
		assert.NotNil(t, list.Flags().Lookup(flag), "flag %s should exist", flag)
	}

	login := NewLoginCommand()
	assert.NotNil(t, login.Flags().Lookup("token"))
	assert.NotNil(t, login.Flags().Lookup("refresh-token"))
}

func TestGetCommand_JSONAndJQ(t *testing.T) {
	server := blockServer(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/users/42", request.URL.Path)
		assert.Equal(t, "role", request.URL.Query().Get("include"))
		assert.Equal(t, "key-1", request.Header.Get(constants.HeaderAPIKey))

		writer.Header().Set("Content-Type", "application/vnd.api+json")
		_, _ = io.WriteString(writer, userDocument)
	})

	setupCLI(t, blocksConfig(map[string]string{"identity": server.URL})+"api_key: key-1\n")
	viper.Set("output", constants.FormatJSON)

	out, err := execute(t, NewGetCommand(), "identity", "/users/42", "--include", "role")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "included")

	out, err = execute(t, NewGetCommand(), "identity", "/users/42", "--include", "role", "--jq", ".data.attributes.email")
	require.NoError(t, err)
	assert.Equal(t, `"ada@example.com"`, strings.TrimSpace(out))

	viper.Set("output", constants.FormatTable)

	out, err = execute(t, NewGetCommand(), "identity", "/users/42", "--include", "role")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "roles:r1")
	assert.Contains(t, out, "admin")
}

func TestGetCommand_UnknownBlock(t *testing.T) {
	setupCLI(t, blocksConfig(map[string]string{"identity": "http://localhost:1"}))

	_, err := execute(t, NewGetCommand(), "billing", "/invoices")
	require.ErrorContains(t, err, "block is not configured")
}

func TestGetCommand_NoBlocksConfigured(t *testing.T) {
	setupCLI(t, "output: table\n")

	_, err := execute(t, NewGetCommand(), "identity", "/users")
	require.ErrorIs(t, err, constants.ErrNoBlocksConfigured)
}

func pagedUsers(t *testing.T, total int, requests *atomic.Int32) http.HandlerFunc {
	t.Helper()

	return func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)

		page, _ := strconv.Atoi(request.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(request.URL.Query().Get("per_page"))
		pages := (total + perPage - 1) / perPage

		var items []string

		for i := (page-1)*perPage + 1; i <= min(page*perPage, total); i++ {
			items = append(items, fmt.Sprintf(`{"id":"%d","type":"users","attributes":{"email":"user%d@example.com"}}`, i, i))
		}

		writer.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(writer, `{"data":[%s],"meta":{"pagination":{"total":%d,"page":%d,"per_page":%d,"total_pages":%d}}}`,
			strings.Join(items, ","), total, page, perPage, pages)
	}
}

func TestListCommand_Pages(t *testing.T) {
	var requests atomic.Int32

	server := blockServer(t, pagedUsers(t, 5, &requests))
	setupCLI(t, blocksConfig(map[string]string{"identity": server.URL}))

	out, err := execute(t, NewListCommand(), "identity", "/users", "--per-page", "2", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "user3@example.com")
	assert.NotContains(t, out, "user1@example.com")
	assert.Contains(t, out, "Page 2 of 3 (5 total)")
	assert.Equal(t, int32(1), requests.Load())

	viper.Set("output", constants.FormatJSON)

	out, err = execute(t, NewListCommand(), "identity", "/users", "--per-page", "2", "--all", "--jq", "[.[].id]")
	require.NoError(t, err)
	assert.JSONEq(t, `["1","2","3","4","5"]`, out)
	assert.Equal(t, int32(4), requests.Load())
}

func TestUsersCommands(t *testing.T) {
	var requests atomic.Int32

	server := blockServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/users/42" {
			writer.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(writer, userDocument)

			return
		}

		pagedUsers(t, 3, &requests)(writer, request)
	})

	setupCLI(t, blocksConfig(map[string]string{"identity": server.URL}))

	out, err := execute(t, NewUsersCommand(), "get", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "admin")

	out, err = execute(t, NewUsersCommand(), "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "user3@example.com")

	viper.Set("output", constants.FormatYAML)

	out, err = execute(t, NewUsersCommand(), "get", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "email: ada@example.com")
}

func TestOrdersCommands(t *testing.T) {
	server := blockServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")

		switch request.URL.Path {
		case "/orders":
			assert.Equal(t, "pending", request.URL.Query().Get("filter[status]"))
			_, _ = io.WriteString(writer, `{"data":[{"id":"7","type":"orders","attributes":{"orderNumber":"ORD-7","status":"pending","total":"19.90","currency":"EUR"}}]}`)
		case "/orders/7":
			_, _ = io.WriteString(writer, `{
				"data":{"id":"7","type":"orders","attributes":{"orderNumber":"ORD-7","total":19.9,"currency":"EUR"},
					"relationships":{"customer":{"data":{"type":"users","id":"42"}}}},
				"included":[{"id":"42","type":"users","attributes":{"email":"ada@example.com"}}]}`)
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	})

	setupCLI(t, blocksConfig(map[string]string{"commerce": server.URL}))

	out, err := execute(t, NewOrdersCommand(), "list", "--filter", "status=pending")
	require.NoError(t, err)
	assert.Contains(t, out, "ORD-7")
	assert.Contains(t, out, "19.90 EUR")

	out, err = execute(t, NewOrdersCommand(), "get", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")

	_, err = execute(t, NewOrdersCommand(), "get", "8")
	require.ErrorContains(t, err, "failed to get order")

	_, err = execute(t, NewUsersCommand(), "list")
	require.ErrorContains(t, err, "block is not configured")
}

func TestLoginLogout_Keyring(t *testing.T) {
	server := blockServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(writer, `{"data":{"id":"1","type":"echo","attributes":{"authorization":%q}}}`,
			request.Header.Get(constants.HeaderAuthorization))
	})

	_, ring := setupCLI(t, blocksConfig(map[string]string{"echo": server.URL}))

	out, err := execute(t, NewLoginCommand(), "--token", "abc", "--refresh-token", "def")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")

	store := auth.NewKeyringTokenStore(ring, "")
	token, err := store.Get(t.Context())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "def", token.RefreshToken)

	viper.Set("output", constants.FormatJSON)

	out, err = execute(t, NewGetCommand(), "echo", "/whoami", "--jq", ".data.attributes.authorization")
	require.NoError(t, err)
	assert.Equal(t, `"Bearer abc"`, strings.TrimSpace(out))

	_, err = execute(t, NewLogoutCommand())
	require.NoError(t, err)

	token, err = store.Get(t.Context())
	require.NoError(t, err)
	assert.Nil(t, token)

	out, err = execute(t, NewGetCommand(), "echo", "/whoami", "--jq", ".data.attributes.authorization")
	require.NoError(t, err)
	assert.Equal(t, `""`, strings.TrimSpace(out))
}

func TestLogin_ReadsTokenFromStdin(t *testing.T) {
	_, ring := setupCLI(t, "")

	cmd := NewLoginCommand()
	cmd.SetIn(strings.NewReader("  from-stdin \n"))

	_, err := execute(t, cmd)
	require.NoError(t, err)

	token, err := auth.NewKeyringTokenStore(ring, "").Get(t.Context())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "from-stdin", token.AccessToken)

	cmd = NewLoginCommand()
	cmd.SetIn(strings.NewReader("\n"))

	_, err = execute(t, cmd)
	require.ErrorIs(t, err, constants.ErrEmptyToken)
}

func TestLogin_RedisStore(t *testing.T) {
	redisServer := miniredis.RunT(t)
	setupCLI(t, "token_store: redis\nredis_addr: "+redisServer.Addr()+"\n")

	_, err := execute(t, NewLoginCommand(), "--token", "shared")
	require.NoError(t, err)

	stored, err := redisServer.Get(auth.DefaultRedisKey)
	require.NoError(t, err)
	assert.Contains(t, stored, `"access_token":"shared"`)

	_, err = execute(t, NewLogoutCommand())
	require.NoError(t, err)
	assert.False(t, redisServer.Exists(auth.DefaultRedisKey))
}

func TestVersionCommand(t *testing.T) {
	setupCLI(t, "")
	viper.Set("output", constants.FormatJSON)

	out, err := execute(t, NewVersionCommand("1.2.3", "abc123", "2026-01-01"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc123","built":"2026-01-01"}`, out)
	assert.Equal(t, "1.2.3", Version)
}
