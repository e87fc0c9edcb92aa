package video_api

import (
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"

	"brightline.video/relay/cmd/web/handlers/common"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/vector"
)

// HandleSearch runs a semantic search over indexed transcripts and resolves
// the matches against the videos table, best score first.
func HandleSearch(dbc *db.DatabaseConnection, vectors *vector.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		if vectors == nil {
			return common.ErrBadRequest("search is not configured")
		}

		query := strings.TrimSpace(c.QueryParam("q"))
		if query == "" {
			return common.ErrBadRequest("missing query parameter q")
		}
		topK := common.IntQueryParam(c, "limit", 10, 1, 50)

		ctx := c.Request().Context()
		matches, err := vectors.Query(ctx, query, topK)
		if err != nil {
			slog.Error("search query failed", "error", err, "query", query)
			return common.ErrBadGateway("search backend unavailable")
		}

		type searchHit struct {
			Video videoView `json:"video"`
			Score float64   `json:"score"`
		}
		hits := []searchHit{}
		if len(matches) == 0 {
			return c.JSON(200, map[string]any{"query": query, "results": hits})
		}

		scores := map[string]float64{}
		ids := make([]pgtype.UUID, 0, len(matches))
		for _, m := range matches {
			var u pgtype.UUID
			if err := u.Scan(m.ID); err != nil {
				slog.Warn("search returned non-uuid match", "match_id", m.ID)
				continue
			}
			ids = append(ids, u)
			scores[u.String()] = m.Score
		}

		rows, err := dbc.Queries(ctx).ListVideosByIDs(ctx, ids)
		if err != nil {
			slog.Error("failed to resolve search matches", "error", err)
			return common.ErrInternal("failed to resolve search matches")
		}

		byID := map[string]*db.Video{}
		for _, v := range rows {
			byID[v.ID.String()] = v
		}
		// Preserve the index's ranking; rows deleted since indexing drop out.
		for _, m := range matches {
			if v, ok := byID[m.ID]; ok {
				hits = append(hits, searchHit{Video: toVideoView(v), Score: scores[m.ID]})
			}
		}

		return c.JSON(200, map[string]any{"query": query, "results": hits})
	}
}
