package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/database"
	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/queue"
	"github.com/ymori/dinnerbot/internal/recommend"
	"github.com/ymori/dinnerbot/internal/services/ai"
	"github.com/ymori/dinnerbot/internal/services/line"
)

// invitationPassphrase is the shared family code accepted alongside
// generated INVITE- codes.
const invitationPassphrase = "family2024"

const (
	welcomeMessage = "🎉 夕食レコメンドBotへようこそ！\n\n招待コードを入力するか、/setupコマンドで設定を開始してください。"
	invitedMessage = "✅ 招待コードが確認されました！\n/setupコマンドで設定を開始してください。"
	inviteRequired = "招待コードを入力してください。"

	setupMessage = `設定を開始します。以下の情報を教えてください：

1. アレルギー（ある場合）
2. 嫌いな食材
3. 好きな料理ジャンル

例: "アレルギー: 卵、乳製品
嫌いな食材: セロリ、パクチー
好きなジャンル: 和食、イタリアン"`

	recommendationAck = "🤖 AIが食事履歴を分析中...\n30秒以内にパーソナライズされたレコメンドをお送りします！"
	generalReply      = "メッセージを受け取りました。食事の記録は ⭐ を含めて投稿してください。"
	internalErrReply  = "申し訳ございません。エラーが発生しました。しばらくしてからお試しください。"
)

var recipeSelectionPattern = regexp.MustCompile(`^[1-3]$`)

// Replier sends reply messages bound to an inbound webhook event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string, quickReplies ...line.QuickReply) error
}

// WebhookHandler receives LINE webhook callbacks and routes text messages to
// the bot's features. Recommendation generation is the one slow path; it is
// acknowledged immediately and handed to the job queue.
type WebhookHandler struct {
	channelSecret string
	users         database.UserRepositoryInterface
	meals         database.MealRepositoryInterface
	dishes        database.DishRepositoryInterface
	sessions      *recommend.SessionManager
	mealParser    *recommend.MealParser
	recipes       *recommend.RecipeService
	replier       Replier
	jobQueue      queue.JobQueue
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(
	channelSecret string,
	users database.UserRepositoryInterface,
	meals database.MealRepositoryInterface,
	dishes database.DishRepositoryInterface,
	sessions *recommend.SessionManager,
	mealParser *recommend.MealParser,
	recipes *recommend.RecipeService,
	replier Replier,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		channelSecret: channelSecret,
		users:         users,
		meals:         meals,
		dishes:        dishes,
		sessions:      sessions,
		mealParser:    mealParser,
		recipes:       recipes,
		replier:       replier,
		jobQueue:      jobQueue,
		validate:      validator.New(),
		logger:        logger,
	}
}

type webhookRequest struct {
	Events []webhookEvent `json:"events" validate:"dive"`
}

type webhookEvent struct {
	Type       string         `json:"type" validate:"required"`
	ReplyToken string         `json:"replyToken"`
	Source     webhookSource  `json:"source"`
	Message    webhookMessage `json:"message"`
}

type webhookSource struct {
	UserID string `json:"userId"`
}

type webhookMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HandleWebhook handles POST /webhook. The signature is verified over the
// raw body before any parsing.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if !line.VerifySignature(h.channelSecret, body, signature) {
		h.logger.Warn("webhook signature verification failed",
			zap.String("remote_addr", r.RemoteAddr))
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid signature")
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed webhook payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid webhook payload")
		return
	}

	for _, event := range req.Events {
		if event.Type != "message" || event.Message.Type != "text" {
			continue
		}
		if event.Source.UserID == "" {
			continue
		}
		h.handleTextMessage(r.Context(), event)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTextMessage routes one text message. Routing order matters: setup and
// meal input take precedence over recipe selection, which takes precedence
// over recommendation keywords.
func (h *WebhookHandler) handleTextMessage(ctx context.Context, event webhookEvent) {
	userID := event.Source.UserID
	text := strings.TrimSpace(event.Message.Text)
	replyToken := event.ReplyToken

	// Carry the user id so provider debug logs can attribute the calls
	ctx = ai.WithUserID(ctx, userID)

	user, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		h.registerUser(ctx, userID, replyToken)
		return
	}
	if err != nil {
		h.logger.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		h.reply(ctx, replyToken, internalErrReply)
		return
	}

	if !user.Invited {
		h.handleInvitation(ctx, userID, replyToken, text)
		return
	}

	switch {
	case strings.HasPrefix(text, "/setup"):
		h.reply(ctx, replyToken, setupMessage)
	case strings.Contains(text, "アレルギー") && strings.ContainsAny(text, ":："):
		h.handlePreferences(ctx, userID, replyToken, text)
	case strings.Contains(text, "⭐") || strings.Contains(text, "★"):
		h.handleMealInput(ctx, userID, replyToken, text)
	case recipeSelectionPattern.MatchString(text) || strings.Contains(text, "選ぶ") || strings.Contains(text, "これ"):
		h.handleRecipeRequest(ctx, userID, replyToken, text)
	case strings.Contains(text, "おすすめ") || strings.Contains(text, "レコメンド") || strings.Contains(text, "提案"):
		h.handleRecommendationRequest(ctx, userID, replyToken, text)
	default:
		h.reply(ctx, replyToken, generalReply)
	}
}

func (h *WebhookHandler) registerUser(ctx context.Context, userID, replyToken string) {
	user := &models.User{ID: userID, CreatedAt: time.Now()}
	if err := h.users.Create(ctx, user); err != nil {
		h.logger.Error("failed to create user", zap.String("user_id", userID), zap.Error(err))
		h.reply(ctx, replyToken, internalErrReply)
		return
	}
	h.logger.Info("new user registered", zap.String("user_id", userID))
	h.reply(ctx, replyToken, welcomeMessage)
}

func (h *WebhookHandler) handleInvitation(ctx context.Context, userID, replyToken, text string) {
	if !strings.HasPrefix(text, "INVITE-") && text != invitationPassphrase {
		h.reply(ctx, replyToken, inviteRequired)
		return
	}
	if err := h.users.SetInvited(ctx, userID); err != nil {
		h.logger.Error("failed to mark user invited", zap.String("user_id", userID), zap.Error(err))
		h.reply(ctx, replyToken, internalErrReply)
		return
	}
	h.logger.Info("user invited", zap.String("user_id", userID))
	h.reply(ctx, replyToken, invitedMessage)
}

// handlePreferences parses a setup answer of the documented form and stores
// allergies and disliked ingredients on the user row.
func (h *WebhookHandler) handlePreferences(ctx context.Context, userID, replyToken, text string) {
	allergies := extractLabeledValue(text, "アレルギー")
	dislikes := extractLabeledValue(text, "嫌いな食材")
	if dislikes == "" {
		dislikes = extractLabeledValue(text, "苦手な食材")
	}

	if err := h.users.UpdatePreferences(ctx, userID, allergies, dislikes); err != nil {
		h.logger.Error("failed to update preferences", zap.String("user_id", userID), zap.Error(err))
		h.reply(ctx, replyToken, internalErrReply)
		return
	}

	h.reply(ctx, replyToken, "✅ 設定を保存しました！\n「おすすめ教えて」と送信すると夕食の提案が届きます。")
}

// extractLabeledValue pulls the value after "label:" or "label：" up to the
// end of the line.
func extractLabeledValue(text, label string) string {
	idx := strings.Index(text, label)
	if idx == -1 {
		return ""
	}
	rest := text[idx+len(label):]
	rest = strings.TrimLeft(rest, " \t:：")
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

func (h *WebhookHandler) handleMealInput(ctx context.Context, userID, replyToken, text string) {
	input := h.mealParser.Parse(ctx, text)

	today := time.Now()
	saved := 0
	for _, dish := range input.Dishes {
		meal := &models.Meal{
			UserID:  userID,
			AteDate: today,
			Dish:    dish,
			Tags:    input.Tags,
			Rating:  input.Rating,
			Mood:    input.Mood,
		}
		if err := h.meals.Create(ctx, meal); err != nil {
			h.logger.Error("failed to save meal",
				zap.String("user_id", userID), zap.String("dish", dish), zap.Error(err))
			continue
		}
		saved++
	}

	if saved == 0 {
		h.reply(ctx, replyToken, "申し訳ございません。食事記録でエラーが発生しました。")
		return
	}

	aiStatus := "🤖 AI解析済み"
	if recommend.Heuristic(input) {
		aiStatus = "📝 簡易解析"
	}
	confirmation := "🍽️ 食事を記録しました！ " + aiStatus + "\n\n" +
		"料理: " + strings.Join(input.Dishes, ", ") + "\n" +
		"評価: " + strings.Repeat("⭐", input.Rating) + "\n" +
		"気分: " + input.Mood + "\n" +
		"ジャンル: " + strings.Join(input.Tags, ", ")
	h.reply(ctx, replyToken, confirmation)
}

// handleRecipeRequest resolves the selected dish from the current session's
// latest batch (for numeric selections) or from the message text, replies
// with a generated recipe, and records the dish as a decided meal.
func (h *WebhookHandler) handleRecipeRequest(ctx context.Context, userID, replyToken, text string) {
	var dishName string

	if recipeSelectionPattern.MatchString(text) {
		order, _ := strconv.Atoi(text)
		sessionID := h.sessions.ResolveOrCreate(ctx, userID)
		dish, err := h.dishes.GetByOrder(ctx, sessionID, order)
		if err != nil {
			h.logger.Warn("no dish found for selection",
				zap.String("session_id", sessionID), zap.Int("order", order), zap.Error(err))
			h.reply(ctx, replyToken, "選択できる提案が見つかりませんでした。\n再度「おすすめ教えて」と送信してください。")
			return
		}
		dishName = dish.DishName
		if err := h.dishes.MarkSelected(ctx, dish.ID); err != nil {
			h.logger.Warn("failed to mark dish selected",
				zap.Int64("dish_id", dish.ID), zap.Error(err))
		}
	} else {
		dishName = h.recipes.ExtractDish(ctx, text)
		if dishName == "" {
			dishName = "選択された料理"
		}
	}

	recipe := h.recipes.GenerateRecipe(ctx, dishName)
	h.reply(ctx, replyToken, recipe)

	meal := &models.Meal{
		UserID:  userID,
		AteDate: time.Now(),
		Dish:    dishName,
		Rating:  3,
		Decided: true,
	}
	if err := h.meals.Create(ctx, meal); err != nil {
		h.logger.Warn("failed to record decided meal",
			zap.String("user_id", userID), zap.String("dish", dishName), zap.Error(err))
	}
}

func (h *WebhookHandler) handleRecommendationRequest(ctx context.Context, userID, replyToken, text string) {
	h.reply(ctx, replyToken, recommendationAck)

	job := queue.NewRecommendationJob(userID, text)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Error("failed to enqueue recommendation job",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (h *WebhookHandler) reply(ctx context.Context, replyToken, text string, quickReplies ...line.QuickReply) {
	if err := h.replier.Reply(ctx, replyToken, text, quickReplies...); err != nil {
		h.logger.Warn("failed to send reply", zap.Error(err))
	}
}
