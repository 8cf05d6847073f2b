package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/story-relay-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type StoryRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo StoryRepository
	ctx  context.Context
}

func (s *StoryRepositoryTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.repo = NewStoryRepository(s.db)
	s.ctx = context.Background()
}

func (s *StoryRepositoryTestSuite) addContribution(storyID, userID uint64, content string) (bool, error) {
	return s.repo.AddContribution(s.ctx, &models.Contribution{
		StoryID: storyID,
		UserID:  userID,
		Content: content,
	}, 4)
}

func (s *StoryRepositoryTestSuite) TestAddContribution_CompletesAtCap() {
	user := createUser(s.T(), s.db, "alice")
	story := createStory(s.T(), s.db, "Tale", user.ID)

	for i := 1; i <= 3; i++ {
		completed, err := s.addContribution(story.ID, user.ID, fmt.Sprintf("line %d\nline", i))
		s.Require().NoError(err)
		s.False(completed)
	}

	completed, err := s.addContribution(story.ID, user.ID, "last\nline")
	s.Require().NoError(err)
	s.True(completed)

	_, err = s.addContribution(story.ID, user.ID, "too\nlate")
	s.ErrorIs(err, ErrStoryClosed)

	found, err := s.repo.FindByID(s.ctx, story.ID)
	s.Require().NoError(err)
	s.True(found.Completed)
	s.Equal(4, found.ContributionCount)

	count, err := s.repo.CountContributions(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Equal(int64(4), count)
}

func (s *StoryRepositoryTestSuite) TestAddContribution_MissingStory() {
	user := createUser(s.T(), s.db, "alice")

	_, err := s.addContribution(999, user.ID, "a\nb")
	s.ErrorIs(err, ErrStoryNotFound)
}

func (s *StoryRepositoryTestSuite) TestAddContribution_ConcurrentNeverExceedsCap() {
	user := createUser(s.T(), s.db, "alice")
	story := createStory(s.T(), s.db, "Race", user.ID)
	for i := 0; i < 3; i++ {
		_, err := s.addContribution(story.ID, user.ID, "a\nb")
		s.Require().NoError(err)
	}

	const writers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		completes int
		closed    int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			completed, err := s.addContribution(story.ID, user.ID, "c\nd")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
				if completed {
					completes++
				}
			case errors.Is(err, ErrStoryClosed):
				closed++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(1, completes)
	s.Equal(writers-1, closed)

	count, err := s.repo.CountContributions(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Equal(int64(4), count)
}

func (s *StoryRepositoryTestSuite) TestFindByID_PreloadsContributionsInOrder() {
	alice := createUser(s.T(), s.db, "alice")
	bob := createUser(s.T(), s.db, "bob")
	story := createStory(s.T(), s.db, "Ordered", alice.ID)

	_, err := s.addContribution(story.ID, alice.ID, "first\none")
	s.Require().NoError(err)
	_, err = s.addContribution(story.ID, bob.ID, "second\none")
	s.Require().NoError(err)

	found, err := s.repo.FindByID(s.ctx, story.ID, "CreatedBy", "Contributions", "Contributions.User")
	s.Require().NoError(err)
	s.Equal("alice", found.CreatedBy.Username)
	s.Require().Len(found.Contributions, 2)
	s.Equal("first\none", found.Contributions[0].Content)
	s.Equal("bob", found.Contributions[1].User.Username)

	listed, err := s.repo.ListContributions(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("alice", listed[0].User.Username)
}

func (s *StoryRepositoryTestSuite) TestList_NewestFirstWithTotal() {
	user := createUser(s.T(), s.db, "alice")
	for i := 0; i < 3; i++ {
		createStory(s.T(), s.db, fmt.Sprintf("story %d", i), user.ID)
	}

	stories, total, err := s.repo.List(s.ctx, StoryFilter{Page: 1, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(stories, 2)
	s.Equal("story 2", stories[0].Title)
	s.Equal("alice", stories[0].CreatedBy.Username)

	stories, _, err = s.repo.List(s.ctx, StoryFilter{Page: 2, PageSize: 2})
	s.Require().NoError(err)
	s.Require().Len(stories, 1)
	s.Equal("story 0", stories[0].Title)

	stories, _, err = s.repo.List(s.ctx, StoryFilter{})
	s.Require().NoError(err)
	s.Len(stories, 3)
}

func (s *StoryRepositoryTestSuite) TestUpdateTitle() {
	user := createUser(s.T(), s.db, "alice")
	story := createStory(s.T(), s.db, "Old", user.ID)

	s.Require().NoError(s.repo.UpdateTitle(s.ctx, story.ID, "New"))
	found, err := s.repo.FindByID(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Equal("New", found.Title)

	s.ErrorIs(s.repo.UpdateTitle(s.ctx, 999, "x"), gorm.ErrRecordNotFound)
}

func (s *StoryRepositoryTestSuite) TestDelete_RemovesContributionsAndJobs() {
	user := createUser(s.T(), s.db, "alice")
	story := createStory(s.T(), s.db, "Doomed", user.ID)
	_, err := s.addContribution(story.ID, user.ID, "a\nb")
	s.Require().NoError(err)
	s.Require().NoError(s.db.Create(&models.ExportJob{ID: "job-1", StoryID: story.ID, RequestedByID: user.ID, Format: models.ExportFormatPDF, Status: models.ExportStatusPending}).Error)

	s.Require().NoError(s.repo.Delete(s.ctx, story.ID))

	_, err = s.repo.FindByID(s.ctx, story.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	var contributions, jobs int64
	s.db.Model(&models.Contribution{}).Count(&contributions)
	s.db.Model(&models.ExportJob{}).Count(&jobs)
	s.Zero(contributions)
	s.Zero(jobs)
}

func (s *StoryRepositoryTestSuite) TestSetExportState() {
	user := createUser(s.T(), s.db, "alice")
	story := createStory(s.T(), s.db, "Export", user.ID)

	s.Require().NoError(s.repo.SetExportState(s.ctx, story.ID, models.ExportFormatPDF, models.ExportStatusPending, nil))
	ref := "exports/pdf/story_1.pdf"
	s.Require().NoError(s.repo.SetExportState(s.ctx, story.ID, models.ExportFormatPDF, models.ExportStatusDone, &ref))
	s.Require().NoError(s.repo.SetExportState(s.ctx, story.ID, models.ExportFormatImage, models.ExportStatusFailed, nil))

	found, err := s.repo.FindByID(s.ctx, story.ID)
	s.Require().NoError(err)
	s.Equal(models.ExportStatusDone, found.PDFStatus)
	s.Require().NotNil(found.PDFFile)
	s.Equal(ref, *found.PDFFile)
	s.Equal(models.ExportStatusFailed, found.ImageStatus)
	s.Nil(found.ImageFile)
}

func (s *StoryRepositoryTestSuite) TestMarkCompleted() {
	user := createUser(s.T(), s.db, "alice")
	story := createStory(s.T(), s.db, "Closing", user.ID)

	s.Require().NoError(s.repo.MarkCompleted(s.ctx, story.ID))

	found, err := s.repo.FindByID(s.ctx, story.ID)
	s.Require().NoError(err)
	s.True(found.Completed)
}

func TestStoryRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(StoryRepositoryTestSuite))
}

func newMockRepo(t *testing.T) (StoryRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewStoryRepository(db), mock
}

func TestAddContribution_RollsBackWhenInsertFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "stories" SET "contribution_count"=contribution_count \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "contributions"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.AddContribution(context.Background(), &models.Contribution{StoryID: 1, UserID: 1, Content: "a\nb"}, 4)
	assert.EqualError(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "contributions" WHERE story_id = \$1`).
		WithArgs(7).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 7)
	assert.EqualError(t, err, "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}
