package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/maps>; rel="maps"`,
		`</api/v1/library/heatmaps>; rel="library"`,
		`</api/v1/events>; rel="events"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/maps>; rel="maps"`,
	},
	"/api/v1/maps": {
		`</api/v1/library/heatmaps>; rel="library"`,
		`</api/v1/events>; rel="events"`,
	},
	"/api/v1/maps/{id}": {
		`</api/v1/maps>; rel="collection"`,
	},
	"/api/v1/library/heatmaps": {
		`</api/v1/maps>; rel="maps"`,
		`</api/v1/points/query>; rel="search"`,
	},
	"/api/v1/library/heatmaps/{heatmapId}": {
		`</api/v1/library/heatmaps>; rel="collection"`,
	},
	"/api/v1/tables": {
		`</api/v1/points/query>; rel="search"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link, tiles excepted.
		if strings.Contains(op.Path, "{") && !strings.Contains(op.Path, "/tiles/") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
