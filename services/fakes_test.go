package services_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- division repository ---

type fakeDivisionRepo struct {
	mu        sync.Mutex
	divisions []models.Division
	nextID    int
}

func newFakeDivisionRepo(divisions ...models.Division) *fakeDivisionRepo {
	r := &fakeDivisionRepo{nextID: 1}
	for _, d := range divisions {
		d.ID = r.nextID
		r.nextID++
		r.divisions = append(r.divisions, d)
	}
	r.sortLadder()
	return r
}

func (r *fakeDivisionRepo) sortLadder() {
	sort.Slice(r.divisions, func(i, j int) bool { return r.divisions[i].Order < r.divisions[j].Order })
}

func (r *fakeDivisionRepo) List(ctx context.Context) ([]models.Division, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Division, len(r.divisions))
	copy(out, r.divisions)
	return out, nil
}

func (r *fakeDivisionRepo) GetByID(ctx context.Context, id int) (*models.Division, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.divisions {
		if r.divisions[i].ID == id {
			d := r.divisions[i]
			return &d, nil
		}
	}
	return nil, repositories.ErrDivisionNotFound
}

func (r *fakeDivisionRepo) UpsertByName(ctx context.Context, division *models.Division) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.divisions {
		if r.divisions[i].Name == division.Name {
			division.ID = r.divisions[i].ID
			r.divisions[i] = *division
			r.sortLadder()
			return nil
		}
	}
	division.ID = r.nextID
	r.nextID++
	r.divisions = append(r.divisions, *division)
	r.sortLadder()
	return nil
}

// --- user repository ---

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(username string, points int, lives models.LifePool) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &models.User{
		ID:       r.nextID,
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     models.RoleUser,
		Points:   points,
		Lives:    lives,
	}
	r.nextID++
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) points(id int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].Points
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListByPointsRange(ctx context.Context, minPoints int, maxPoints *int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range r.users {
		if u.Points < minPoints {
			continue
		}
		if maxPoints != nil && u.Points > *maxPoints {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeUserRepo) SetPoints(ctx context.Context, exec repositories.SQLExecutor, userID, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Points = points
	return nil
}

func (r *fakeUserRepo) AddPoints(ctx context.Context, exec repositories.SQLExecutor, userID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Points += delta
	return nil
}

func (r *fakeUserRepo) UpdateStreak(ctx context.Context, userID, streak int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Streak = streak
	return nil
}

func (r *fakeUserRepo) UpdateLifePool(ctx context.Context, userID int, pool models.LifePool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Lives = pool
	return nil
}

func (r *fakeUserRepo) ConsumeLife(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if u.Lives.Current <= 0 {
		return repositories.ErrNoLivesRemaining
	}
	u.Lives.Current--
	return nil
}

func (r *fakeUserRepo) ListRegenerable(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range r.users {
		if u.Lives.Current < u.Lives.Max {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- ranking repository ---

type rankingKey struct {
	week       int64
	divisionID int
}

type fakeRankingRepo struct {
	mu       sync.Mutex
	rankings map[rankingKey]*models.WeeklyRanking
	byID     map[int]*models.WeeklyRanking
	nextID   int
}

func newFakeRankingRepo() *fakeRankingRepo {
	return &fakeRankingRepo{
		rankings: make(map[rankingKey]*models.WeeklyRanking),
		byID:     make(map[int]*models.WeeklyRanking),
		nextID:   1,
	}
}

func key(weekStart time.Time, divisionID int) rankingKey {
	return rankingKey{week: weekStart.Unix(), divisionID: divisionID}
}

func (r *fakeRankingRepo) Upsert(ctx context.Context, ranking *models.WeeklyRanking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(ranking.WeekStart, ranking.DivisionID)
	if existing, ok := r.rankings[k]; ok {
		if existing.IsProcessed {
			return repositories.ErrRankingAlreadyProcessed
		}
		ranking.ID = existing.ID
	} else {
		ranking.ID = r.nextID
		r.nextID++
	}
	clone := *ranking
	clone.Entries = append([]models.RankingEntry(nil), ranking.Entries...)
	r.rankings[k] = &clone
	r.byID[clone.ID] = &clone
	return nil
}

func (r *fakeRankingRepo) GetByWeekAndDivision(ctx context.Context, exec repositories.SQLExecutor, weekStart time.Time, divisionID int) (*models.WeeklyRanking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ranking, ok := r.rankings[key(weekStart, divisionID)]
	if !ok {
		return nil, repositories.ErrRankingNotFound
	}
	clone := *ranking
	clone.Entries = append([]models.RankingEntry(nil), ranking.Entries...)
	return &clone, nil
}

func (r *fakeRankingRepo) GetLatestByDivision(ctx context.Context, divisionID int) (*models.WeeklyRanking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.WeeklyRanking
	for _, ranking := range r.rankings {
		if ranking.DivisionID != divisionID {
			continue
		}
		if latest == nil || ranking.WeekStart.After(latest.WeekStart) {
			latest = ranking
		}
	}
	if latest == nil {
		return nil, repositories.ErrRankingNotFound
	}
	clone := *latest
	clone.Entries = append([]models.RankingEntry(nil), latest.Entries...)
	return &clone, nil
}

func (r *fakeRankingRepo) ClaimProcessing(ctx context.Context, exec repositories.SQLExecutor, rankingID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ranking, ok := r.byID[rankingID]
	if !ok {
		return repositories.ErrRankingNotFound
	}
	if ranking.IsProcessed {
		return repositories.ErrRankingAlreadyProcessed
	}
	ranking.IsProcessed = true
	return nil
}

func (r *fakeRankingRepo) UpdateEntryStatuses(ctx context.Context, exec repositories.SQLExecutor, rankingID int, entries []models.RankingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ranking, ok := r.byID[rankingID]
	if !ok {
		return repositories.ErrRankingNotFound
	}
	statuses := make(map[int]models.RankingStatus, len(entries))
	for _, e := range entries {
		statuses[e.UserID] = e.Status
	}
	for i := range ranking.Entries {
		if status, ok := statuses[ranking.Entries[i].UserID]; ok {
			ranking.Entries[i].Status = status
		}
	}
	return nil
}

// --- transaction runner ---

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// --- attempt repository ---

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []models.Attempt
	nextID   int
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{nextID: 1}
}

func (r *fakeAttemptRepo) addAt(userID, quizID, score int, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, models.Attempt{
		ID: r.nextID, UserID: userID, QuizID: quizID, Score: score, CreatedAt: createdAt,
	})
	r.nextID++
}

func (r *fakeAttemptRepo) Create(ctx context.Context, attempt *models.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt.ID = r.nextID
	r.nextID++
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	r.attempts = append(r.attempts, *attempt)
	return nil
}

func (r *fakeAttemptRepo) SumScoreBetween(ctx context.Context, userID int, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, a := range r.attempts {
		if a.UserID == userID && !a.CreatedAt.Before(from) && a.CreatedAt.Before(to) {
			total += a.Score
		}
	}
	return total, nil
}

func (r *fakeAttemptRepo) DailyScores(ctx context.Context, userID int, from, to time.Time) ([]models.DayScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDay := make(map[time.Time]*models.DayScore)
	for _, a := range r.attempts {
		if a.UserID != userID || a.CreatedAt.Before(from) || !a.CreatedAt.Before(to) {
			continue
		}
		day := truncateDay(a.CreatedAt)
		if byDay[day] == nil {
			byDay[day] = &models.DayScore{Day: day}
		}
		byDay[day].XP += a.Score
		byDay[day].Attempts++
	}
	out := make([]models.DayScore, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (r *fakeAttemptRepo) ActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[time.Time]bool)
	for _, a := range r.attempts {
		if a.UserID == userID && !a.CreatedAt.Before(since) {
			seen[truncateDay(a.CreatedAt)] = true
		}
	}
	out := make([]time.Time, 0, len(seen))
	for day := range seen {
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// --- quiz progress repository ---

type progressKey struct{ userID, quizID int }

type fakeProgressRepo struct {
	mu       sync.Mutex
	progress map[progressKey]*models.QuizProgress
	nextID   int
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{progress: make(map[progressKey]*models.QuizProgress), nextID: 1}
}

func (r *fakeProgressRepo) GetByUserAndQuiz(ctx context.Context, userID, quizID int) (*models.QuizProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.progress[progressKey{userID, quizID}]
	if !ok {
		return nil, repositories.ErrQuizProgressNotFound
	}
	clone := *p
	clone.Answers = append([]bool(nil), p.Answers...)
	return &clone, nil
}

func (r *fakeProgressRepo) Create(ctx context.Context, progress *models.QuizProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := progressKey{progress.UserID, progress.QuizID}
	if _, ok := r.progress[k]; ok {
		return repositories.ErrQuizProgressConflict
	}
	progress.ID = r.nextID
	r.nextID++
	progress.StartedAt = time.Now()
	progress.LastActivityAt = progress.StartedAt
	clone := *progress
	r.progress[k] = &clone
	return nil
}

func (r *fakeProgressRepo) Update(ctx context.Context, progress *models.QuizProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := progressKey{progress.UserID, progress.QuizID}
	if _, ok := r.progress[k]; !ok {
		return repositories.ErrQuizProgressNotFound
	}
	clone := *progress
	clone.LastActivityAt = time.Now()
	r.progress[k] = &clone
	return nil
}

func (r *fakeProgressRepo) DeleteByUserAndQuiz(ctx context.Context, userID, quizID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := progressKey{userID, quizID}
	if _, ok := r.progress[k]; !ok {
		return repositories.ErrQuizProgressNotFound
	}
	delete(r.progress, k)
	return nil
}

// --- quiz content ---

type fakeQuizContent struct {
	questions map[int][]int // quizID -> correct choice per question
	countErr  error
}

func (c *fakeQuizContent) QuestionCount(ctx context.Context, quizID int) (int, error) {
	if c.countErr != nil {
		return 0, c.countErr
	}
	q, ok := c.questions[quizID]
	if !ok {
		return 0, repositories.ErrQuizNotFound
	}
	return len(q), nil
}

func (c *fakeQuizContent) IsCorrect(ctx context.Context, quizID, questionIndex, choiceIndex int) (bool, error) {
	q, ok := c.questions[quizID]
	if !ok || questionIndex >= len(q) {
		return false, repositories.ErrQuizNotFound
	}
	return q[questionIndex] == choiceIndex, nil
}
