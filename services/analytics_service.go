package services

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskflow/models"
	"taskflow/utils"
)

// AnalyticsService computes read-only aggregates over tasks, teams,
// users and the activity log.
type AnalyticsService struct {
	db         *gorm.DB
	activities *ActivityService
	logger     *logrus.Entry
}

func NewAnalyticsService(db *gorm.DB, activities *ActivityService, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		db:         db,
		activities: activities,
		logger:     logger.WithField("component", "analytics-service"),
	}
}

type Dashboard struct {
	TotalTasks      int64           `json:"total_tasks"`
	CompletedTasks  int64           `json:"completed_tasks"`
	InProgressTasks int64           `json:"in_progress_tasks"`
	TodoTasks       int64           `json:"todo_tasks"`
	ReviewTasks     int64           `json:"review_tasks"`
	TotalTeams      int64           `json:"total_teams"`
	TotalMembers    int64           `json:"total_members"`
	TotalUsers      int64           `json:"total_users"`
	RecentActivity  []ActivityEntry `json:"recent_activity"`
}

// TrendPoint counts tasks created on a given day, and how many of those
// have since been completed.
type TrendPoint struct {
	Date      string `json:"date"`
	Created   int64  `json:"created"`
	Completed int64  `json:"completed"`
}

type TeamPerformance struct {
	TeamID         uint    `json:"team_id"`
	TeamName       string  `json:"team_name"`
	MemberCount    int64   `json:"member_count"`
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

type UserProductivity struct {
	UserID         uint    `json:"user_id"`
	UserName       string  `json:"user_name"`
	TeamCount      int64   `json:"team_count"`
	AssignedTasks  int64   `json:"assigned_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

type PrioritySlice struct {
	Priority   string  `json:"priority"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Dashboard returns the headline counts plus the ten most recent
// activity entries.
func (s *AnalyticsService) Dashboard() (*Dashboard, error) {
	var dash Dashboard

	err := s.db.Model(&models.Task{}).
		Select(`COUNT(*) AS total_tasks,
			COUNT(CASE WHEN status = 'done' THEN 1 END) AS completed_tasks,
			COUNT(CASE WHEN status = 'in-progress' THEN 1 END) AS in_progress_tasks,
			COUNT(CASE WHEN status = 'todo' THEN 1 END) AS todo_tasks,
			COUNT(CASE WHEN status = 'review' THEN 1 END) AS review_tasks`).
		Scan(&dash).Error
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Team{}).Count(&dash.TotalTeams).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.TeamMember{}).Distinct("user_id").Count(&dash.TotalMembers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.User{}).Count(&dash.TotalUsers).Error; err != nil {
		return nil, err
	}

	recent, err := s.activities.Feed(10)
	if err != nil {
		return nil, err
	}
	dash.RecentActivity = recent

	return &dash, nil
}

// TaskTrends returns per-day created/completed counts for the last
// `days` days, oldest first. Days with no activity are omitted.
func (s *AnalyticsService) TaskTrends(days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []struct {
		CreatedAt time.Time
		Status    string
	}
	err := s.db.Model(&models.Task{}).
		Select("created_at, status").
		Where("created_at >= ?", cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*TrendPoint)
	for _, row := range rows {
		date := row.CreatedAt.Format("2006-01-02")
		point, ok := byDate[date]
		if !ok {
			point = &TrendPoint{Date: date}
			byDate[date] = point
		}
		point.Created++
		if row.Status == models.StatusDone {
			point.Completed++
		}
	}

	trends := make([]TrendPoint, 0, len(byDate))
	for _, point := range byDate {
		trends = append(trends, *point)
	}
	sort.Slice(trends, func(i, j int) bool {
		return trends[i].Date < trends[j].Date
	})
	return trends, nil
}

// TeamPerformance returns per-team task counts and completion rates,
// highest rate first.
func (s *AnalyticsService) TeamPerformance() ([]TeamPerformance, error) {
	var teams []models.Team
	if err := s.db.Find(&teams).Error; err != nil {
		return nil, err
	}

	perf := make([]TeamPerformance, 0, len(teams))
	for _, team := range teams {
		row := TeamPerformance{TeamID: team.ID, TeamName: team.Name}

		if err := s.db.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&row.MemberCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Task{}).Where("team_id = ?", team.ID).Count(&row.TotalTasks).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Task{}).
			Where("team_id = ? AND status = ?", team.ID, models.StatusDone).
			Count(&row.CompletedTasks).Error; err != nil {
			return nil, err
		}

		if row.TotalTasks > 0 {
			row.CompletionRate = utils.Round2(float64(row.CompletedTasks) * 100 / float64(row.TotalTasks))
		}
		perf = append(perf, row)
	}

	sort.SliceStable(perf, func(i, j int) bool {
		return perf[i].CompletionRate > perf[j].CompletionRate
	})
	return perf, nil
}

// UserProductivity returns per-user assigned/completed counts and
// completion rates, highest rate first.
func (s *AnalyticsService) UserProductivity() ([]UserProductivity, error) {
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, err
	}

	prod := make([]UserProductivity, 0, len(users))
	for _, user := range users {
		row := UserProductivity{UserID: user.ID, UserName: user.Name}

		if err := s.db.Model(&models.TeamMember{}).Where("user_id = ?", user.ID).Count(&row.TeamCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Task{}).Where("assignee_id = ?", user.ID).Count(&row.AssignedTasks).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Task{}).
			Where("assignee_id = ? AND status = ?", user.ID, models.StatusDone).
			Count(&row.CompletedTasks).Error; err != nil {
			return nil, err
		}

		if row.AssignedTasks > 0 {
			row.CompletionRate = utils.Round2(float64(row.CompletedTasks) * 100 / float64(row.AssignedTasks))
		}
		prod = append(prod, row)
	}

	sort.SliceStable(prod, func(i, j int) bool {
		return prod[i].CompletionRate > prod[j].CompletionRate
	})
	return prod, nil
}

// PriorityDistribution returns the count and percentage of tasks per
// priority. All three priorities are always present, highest first.
func (s *AnalyticsService) PriorityDistribution() ([]PrioritySlice, error) {
	var counts []struct {
		Priority string
		Count    int64
	}
	err := s.db.Model(&models.Task{}).
		Select("priority, COUNT(*) AS count").
		Group("priority").
		Find(&counts).Error
	if err != nil {
		return nil, err
	}

	byPriority := make(map[string]int64, len(counts))
	var total int64
	for _, row := range counts {
		byPriority[row.Priority] = row.Count
		total += row.Count
	}

	order := []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
	dist := make([]PrioritySlice, 0, len(order))
	for _, priority := range order {
		slice := PrioritySlice{Priority: priority, Count: byPriority[priority]}
		if total > 0 {
			slice.Percentage = utils.Round2(float64(slice.Count) * 100 / float64(total))
		}
		dist = append(dist, slice)
	}
	return dist, nil
}

// OverdueTasks returns unfinished tasks whose due date has passed,
// earliest due first. Due today is not overdue.
func (s *AnalyticsService) OverdueTasks() ([]TaskDetail, error) {
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var tasks []TaskDetail
	err := s.db.Model(&models.Task{}).
		Select(`tasks.*,
			assignee.name AS assignee_name,
			assignee.avatar AS assignee_avatar,
			team.name AS team_name`).
		Joins("LEFT JOIN users assignee ON assignee.id = tasks.assignee_id AND assignee.deleted_at IS NULL").
		Joins("LEFT JOIN teams team ON team.id = tasks.team_id AND team.deleted_at IS NULL").
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ? AND tasks.status <> ?", startOfToday, models.StatusDone).
		Order("tasks.due_date ASC, tasks.id ASC").
		Scan(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ActivitySummary returns per-action counts over the last `days` days.
func (s *AnalyticsService) ActivitySummary(days int) ([]ActionCount, error) {
	if days <= 0 {
		days = 7
	}
	return s.activities.Summary(days)
}
