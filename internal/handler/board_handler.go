package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/middleware"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"github.com/usenarra/narra-backend/pkg/qrcode"
	"github.com/usenarra/narra-backend/pkg/utils"
	"go.uber.org/zap"
)

type BoardHandler struct {
	boards    *service.BoardService
	qr        *qrcode.ShareCodes
	validator *utils.Validator
	logger    *zap.Logger
}

func NewBoardHandler(boards *service.BoardService, qr *qrcode.ShareCodes, validator *utils.Validator, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{boards: boards, qr: qr, validator: validator, logger: logger}
}

// parse decodes and validates the request body, writing a 400 on failure.
func (h *BoardHandler) parse(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	if err := h.validator.Struct(out); err != nil {
		badRequest(c, utils.Message(err))
		return false
	}
	return true
}

func (h *BoardHandler) GetFolders(c *fiber.Ctx) error {
	folders, err := h.boards.GetFolders(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(folders, ""))
}

func (h *BoardHandler) CreateFolder(c *fiber.Ctx) error {
	var req models.CreateFolderRequest
	if !h.parse(c, &req) {
		return nil
	}

	folder, err := h.boards.CreateFolder(middleware.UserID(c), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(folder, "Folder created"))
}

func (h *BoardHandler) UpdateFolder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid folder ID")
	}
	var req models.CreateFolderRequest
	if !h.parse(c, &req) {
		return nil
	}

	folder, err := h.boards.UpdateFolder(middleware.UserID(c), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(folder, "Folder updated"))
}

func (h *BoardHandler) DeleteFolder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid folder ID")
	}
	if err := h.boards.DeleteFolder(middleware.UserID(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Folder deleted"))
}

func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	folderID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid folder ID")
	}
	var req models.CreateBoardRequest
	if !h.parse(c, &req) {
		return nil
	}

	board, err := h.boards.CreateBoard(middleware.UserID(c), folderID, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(board, "Board created"))
}

func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	board, err := h.boards.GetBoard(middleware.UserID(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(board, ""))
}

func (h *BoardHandler) UpdateBoard(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	var req models.UpdateBoardRequest
	if !h.parse(c, &req) {
		return nil
	}

	board, err := h.boards.UpdateBoard(middleware.UserID(c), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(board, "Board updated"))
}

func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	if err := h.boards.DeleteBoard(middleware.UserID(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Board deleted"))
}

func (h *BoardHandler) GetBoardPosts(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	posts, err := h.boards.GetBoardPosts(middleware.UserID(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(posts, ""))
}

func (h *BoardHandler) AddPost(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	var req models.SavePostRequest
	if !h.parse(c, &req) {
		return nil
	}

	post, err := h.boards.AddPost(middleware.UserID(c), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(post, "Post saved to board"))
}

func (h *BoardHandler) RemovePost(c *fiber.Ctx) error {
	boardID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	postID, err := paramID(c, "postId")
	if err != nil {
		return badRequest(c, "Invalid post ID")
	}

	if err := h.boards.RemovePost(middleware.UserID(c), boardID, postID); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Post removed from board"))
}

// GetShareQR renders a PNG QR code of the board's public link.
func (h *BoardHandler) GetShareQR(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	board, err := h.boards.GetBoard(middleware.UserID(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !board.IsShared {
		return respondError(c, h.logger, service.ErrBoardNotShared)
	}

	png, err := h.qr.PNG(board.PublicID, c.QueryInt("size", qrcode.DefaultSize))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// GetSharedBoard is public: anyone with the public id can view a shared board.
func (h *BoardHandler) GetSharedBoard(c *fiber.Ctx) error {
	board, err := h.boards.GetSharedBoard(c.Params("publicId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(board, ""))
}

func (h *BoardHandler) CopyBoard(c *fiber.Ctx) error {
	var req models.CopyBoardRequest
	if !h.parse(c, &req) {
		return nil
	}

	board, err := h.boards.CopyBoard(middleware.UserID(c), req.PublicID, req.FolderID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(board, "Board copied"))
}
