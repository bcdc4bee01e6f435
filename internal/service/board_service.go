package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type BoardService struct {
	folderRepo *repository.FolderRepository
	boardRepo  *repository.BoardRepository
	postRepo   *repository.PostRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewBoardService(folderRepo *repository.FolderRepository, boardRepo *repository.BoardRepository, postRepo *repository.PostRepository, logger *zap.Logger) *BoardService {
	return &BoardService{
		folderRepo: folderRepo,
		boardRepo:  boardRepo,
		postRepo:   postRepo,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *BoardService) GetFolders(userID string) ([]models.Folder, error) {
	folders, err := s.folderRepo.GetUserFolders(userID)
	if err != nil {
		return nil, err
	}

	var boardIDs []uint
	for _, f := range folders {
		for _, b := range f.Boards {
			boardIDs = append(boardIDs, b.ID)
		}
	}
	counts, err := s.boardRepo.CountPosts(boardIDs)
	if err != nil {
		return nil, err
	}
	for i := range folders {
		for j := range folders[i].Boards {
			folders[i].Boards[j].PostCount = counts[folders[i].Boards[j].ID]
		}
	}
	return folders, nil
}

func (s *BoardService) CreateFolder(userID string, req *models.CreateFolderRequest) (*models.Folder, error) {
	folder := &models.Folder{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.folderRepo.Create(folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *BoardService) UpdateFolder(userID string, folderID uint, req *models.CreateFolderRequest) (*models.Folder, error) {
	folder, err := s.getFolder(userID, folderID)
	if err != nil {
		return nil, err
	}
	folder.Name = req.Name
	folder.Description = req.Description
	if err := s.folderRepo.Update(folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *BoardService) DeleteFolder(userID string, folderID uint) error {
	if _, err := s.getFolder(userID, folderID); err != nil {
		return err
	}
	return s.folderRepo.Delete(folderID)
}

func (s *BoardService) CreateBoard(userID string, folderID uint, req *models.CreateBoardRequest) (*models.Board, error) {
	if _, err := s.getFolder(userID, folderID); err != nil {
		return nil, err
	}

	board := &models.Board{
		FolderID:    folderID,
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		PublicID:    newPublicID(),
	}
	if err := s.boardRepo.Create(board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) GetBoard(userID string, boardID uint) (*models.Board, error) {
	board, err := s.getBoard(userID, boardID)
	if err != nil {
		return nil, err
	}
	counts, err := s.boardRepo.CountPosts([]uint{board.ID})
	if err != nil {
		return nil, err
	}
	board.PostCount = counts[board.ID]
	return board, nil
}

func (s *BoardService) UpdateBoard(userID string, boardID uint, req *models.UpdateBoardRequest) (*models.Board, error) {
	board, err := s.getBoard(userID, boardID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		board.Name = *req.Name
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.IsShared != nil {
		board.IsShared = *req.IsShared
	}
	if req.FolderID != nil && *req.FolderID != board.FolderID {
		if _, err := s.getFolder(userID, *req.FolderID); err != nil {
			return nil, err
		}
		board.FolderID = *req.FolderID
	}

	if err := s.boardRepo.Update(board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) DeleteBoard(userID string, boardID uint) error {
	if _, err := s.getBoard(userID, boardID); err != nil {
		return err
	}
	return s.boardRepo.Delete(boardID)
}

func (s *BoardService) GetBoardPosts(userID string, boardID uint) ([]models.BoardPost, error) {
	if _, err := s.getBoard(userID, boardID); err != nil {
		return nil, err
	}
	return s.boardRepo.GetBoardPosts(boardID)
}

// AddPost saves the post for the user and links it to the board.
func (s *BoardService) AddPost(userID string, boardID uint, req *models.SavePostRequest) (*models.Post, error) {
	if _, err := s.getBoard(userID, boardID); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:       userID,
		ProfileID:    req.ProfileID,
		Platform:     req.Platform,
		ExternalID:   req.ExternalID,
		URL:          req.URL,
		Caption:      req.Caption,
		ThumbnailURL: req.ThumbnailURL,
		MediaURLs:    mediaJSON(req.MediaURLs),
		Likes:        req.Likes,
		Comments:     req.Comments,
		Views:        req.Views,
		Shares:       req.Shares,
	}
	if err := s.postRepo.Save(post); err != nil {
		return nil, err
	}

	if err := s.boardRepo.AddPost(&models.BoardPost{BoardID: boardID, PostID: post.ID, AddedAt: s.now()}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BoardService) RemovePost(userID string, boardID, postID uint) error {
	if _, err := s.getBoard(userID, boardID); err != nil {
		return err
	}
	n, err := s.boardRepo.RemovePost(boardID, postID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// GetSharedBoard returns the public view of a shared board.
func (s *BoardService) GetSharedBoard(publicID string) (*models.SharedBoard, error) {
	board, err := s.getSharedBoard(publicID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.boardRepo.GetBoardPosts(board.ID)
	if err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(memberships))
	for _, m := range memberships {
		if m.Post != nil {
			posts = append(posts, *m.Post)
		}
	}

	return &models.SharedBoard{
		PublicID:    board.PublicID,
		Name:        board.Name,
		Description: board.Description,
		Posts:       posts,
		CreatedAt:   board.CreatedAt,
	}, nil
}

// CopyBoard copies a shared board into one of the user's folders. Each user can
// copy a given source board once; the copy references the same posts.
func (s *BoardService) CopyBoard(userID, publicID string, folderID uint) (*models.Board, error) {
	source, err := s.getSharedBoard(publicID)
	if err != nil {
		return nil, err
	}
	if _, err := s.getFolder(userID, folderID); err != nil {
		return nil, err
	}

	copied, err := s.boardRepo.HasCopy(userID, publicID)
	if err != nil {
		return nil, err
	}
	if copied {
		return nil, ErrAlreadyCopied
	}

	postIDs, err := s.boardRepo.GetPostIDs(source.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sourceName := source.Name
	board := &models.Board{
		FolderID:           folderID,
		UserID:             userID,
		Name:               source.Name,
		Description:        source.Description,
		PublicID:           newPublicID(),
		CopiedFromPublicID: &publicID,
		CopiedFromName:     &sourceName,
		CopiedAt:           &now,
	}

	if err := s.boardRepo.CreateCopy(board, postIDs); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrAlreadyCopied
		}
		return nil, err
	}
	board.PostCount = int64(len(postIDs))

	s.logger.Info("board copied",
		zap.String("user_id", userID),
		zap.String("source_public_id", publicID),
		zap.Uint("board_id", board.ID),
		zap.Int("posts", len(postIDs)),
	)
	return board, nil
}

func (s *BoardService) getFolder(userID string, folderID uint) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByIDForUser(folderID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}
	return folder, nil
}

func (s *BoardService) getBoard(userID string, boardID uint) (*models.Board, error) {
	board, err := s.boardRepo.GetByIDForUser(boardID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBoardNotFound
		}
		return nil, err
	}
	return board, nil
}

func (s *BoardService) getSharedBoard(publicID string) (*models.Board, error) {
	board, err := s.boardRepo.GetByPublicID(publicID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBoardNotFound
		}
		return nil, err
	}
	if !board.IsShared {
		return nil, ErrBoardNotFound
	}
	return board, nil
}

func newPublicID() string {
	return uuid.NewString()
}

func mediaJSON(urls []string) datatypes.JSON {
	if len(urls) == 0 {
		return datatypes.JSON("[]")
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}
