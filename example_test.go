package yamldb_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mitsuhiko/yamldb"
	"github.com/mitsuhiko/yamldb/pkg/core"
	"github.com/mitsuhiko/yamldb/pkg/query"
)

// Example demonstrates the basic save/query lifecycle.
func Example() {
	root, err := os.MkdirTemp("", "yamldb-example")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer os.RemoveAll(root)

	ctx := context.Background()

	db, err := yamldb.Open(root)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	posts, err := db.DeclareCollection(ctx, "posts", "pub_date")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	doc := core.FromMap(map[string]any{
		"title":    "Hello World",
		"pub_date": time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if _, err := posts.Save(ctx, doc); err != nil {
		fmt.Println("Error:", err)
		return
	}

	results, err := posts.Query().
		Filter(query.Field("pub_date").Year().Eq(2011)).
		All(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for _, d := range results {
		title, _ := d.Get("title")
		fmt.Println(title)
	}
	// Output: Hello World
}
