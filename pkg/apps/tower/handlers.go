package tower

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/privacy-tower/internal/api"
	"github.com/jgirmay/privacy-tower/pkg/models"
)

// ============================================================================
// REQUESTS / RESPONSES
// ============================================================================

type CreateGameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

type CreateGameResponse struct {
	SessionID string           `json:"session_id"`
	State     models.GameState `json:"state"`
}

type AnswerRequest struct {
	SelectedIndex  *int  `json:"selected_index" binding:"required"`
	ResponseTimeMs int64 `json:"response_time_ms" binding:"gte=0"`
}

type RollResponse struct {
	Roll             models.DiceRoll    `json:"roll"`
	AccessibleBlocks []models.BlockView `json:"accessible_blocks"`
	SuggestedBlocks  []models.BlockView `json:"suggested_blocks"`
}

type SaveResponse struct {
	SnapshotID string    `json:"snapshot_id"`
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type AchievementsResponse struct {
	Definitions []models.AchievementDefinition `json:"definitions"`
	Player      interface{}                    `json:"player,omitempty"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (ta *TowerApp) fail(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		ta.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	api.RespondWithError(c, apiErr)
}

func (ta *TowerApp) handleCreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithError(c, api.ErrBadRequest.WithDetails(gin.H{"reason": err.Error()}))
		return
	}

	id, state, err := ta.sessions.Create(c.Request.Context(), req.Nickname)
	if err != nil {
		ta.fail(c, err)
		return
	}

	api.RespondWith(c, http.StatusCreated, CreateGameResponse{SessionID: id, State: state.Public()})
}

func (ta *TowerApp) handleListGames(c *gin.Context) {
	list := ta.sessions.List()
	api.RespondWithList(c, list, len(list))
}

func (ta *TowerApp) handleGetGame(c *gin.Context) {
	state, err := ta.sessions.State(c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, state.Public())
}

func (ta *TowerApp) handleDeleteGame(c *gin.Context) {
	id := c.Param("id")
	if err := ta.sessions.Delete(c.Request.Context(), id); err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, gin.H{"session_id": id, "deleted": true})
}

func (ta *TowerApp) handleGetBlocks(c *gin.Context) {
	blocks, err := ta.sessions.Blocks(c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	views := models.NewBlockViews(blocks)
	api.RespondWithList(c, views, len(views))
}

func (ta *TowerApp) handleClickBlock(c *gin.Context) {
	item, err := ta.sessions.Click(c.Param("id"), c.Param("blockID"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, item.View())
}

func (ta *TowerApp) handleAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithError(c, api.ErrBadRequest.WithDetails(gin.H{"reason": err.Error()}))
		return
	}

	elapsed := time.Duration(req.ResponseTimeMs) * time.Millisecond
	result, err := ta.sessions.Answer(c.Param("id"), c.Param("blockID"), *req.SelectedIndex, elapsed)
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, result)
}

func (ta *TowerApp) handleRoll(c *gin.Context) {
	outcome, err := ta.sessions.Roll(c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, RollResponse{
		Roll:             outcome.Roll,
		AccessibleBlocks: models.NewBlockViews(outcome.Accessible),
		SuggestedBlocks:  models.NewBlockViews(outcome.Suggested),
	})
}

func (ta *TowerApp) handleRebuild(c *gin.Context) {
	state, err := ta.sessions.Rebuild(c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, state.Public())
}

func (ta *TowerApp) handleReset(c *gin.Context) {
	state, err := ta.sessions.Reset(c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, state.Public())
}

func (ta *TowerApp) handleStatistics(c *gin.Context) {
	stats, err := ta.sessions.Statistics(c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, stats)
}

func (ta *TowerApp) handleSave(c *gin.Context) {
	record, err := ta.sessions.Save(c.Request.Context(), c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusCreated, SaveResponse{
		SnapshotID: record.ID.String(),
		SessionID:  record.SessionID,
		CreatedAt:  record.CreatedAt,
	})
}

func (ta *TowerApp) handleRestore(c *gin.Context) {
	state, err := ta.sessions.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, state.Public())
}

func (ta *TowerApp) handleGetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 || limit > 100 {
		api.RespondWithError(c, api.NewError(api.ErrCodeInvalidRequest, "limit must be between 1 and 100", http.StatusBadRequest))
		return
	}

	board, err := ta.statsManager.GetLeaderboard(c.Request.Context(), AppName, limit)
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWithList(c, board, len(board))
}

func (ta *TowerApp) handleGetTopPlayers(c *gin.Context) {
	if ta.players == nil {
		api.RespondWithError(c, api.ErrUnavailable)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 || limit > 100 {
		api.RespondWithError(c, api.NewError(api.ErrCodeInvalidRequest, "limit must be between 1 and 100", http.StatusBadRequest))
		return
	}

	players, err := ta.players.Top(c.Request.Context(), limit)
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWithList(c, players, len(players))
}

func (ta *TowerApp) handleGetPlayerStats(c *gin.Context) {
	stats, err := ta.userStats(c.Request.Context(), c.Param("nickname"))
	if err != nil {
		ta.fail(c, err)
		return
	}
	api.RespondWith(c, http.StatusOK, stats)
}

func (ta *TowerApp) handleGetAchievements(c *gin.Context) {
	resp := AchievementsResponse{Definitions: ta.definitions}
	if player := c.Query("player"); player != "" {
		statuses, err := ta.achievementMgr.GetUserAchievements(c.Request.Context(), player, AppName)
		if err != nil {
			ta.fail(c, err)
			return
		}
		resp.Player = statuses
	}
	api.RespondWith(c, http.StatusOK, resp)
}
