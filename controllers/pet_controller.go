package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/models"
	"github.com/pawpal/adoption_backend/services"
	"gorm.io/gorm"
)

type PetController struct {
	db       *gorm.DB
	adoption *services.AdoptionService
}

func NewPetController(db *gorm.DB, adoption *services.AdoptionService) *PetController {
	return &PetController{db: db, adoption: adoption}
}

type RegisterPetInput struct {
	Name         string `json:"name" binding:"required"`
	Breed        string `json:"breed" binding:"required"`
	Age          int    `json:"age" binding:"min=0"`
	IsVaccinated bool   `json:"isVaccinated"`
	IsSterilized bool   `json:"isSterilized"`
	Description  string `json:"description"`
	Size         string `json:"size" binding:"required"`
	ImageURL     string `json:"imageUrl"`
	Location     string `json:"location"`
}

type SetAdoptedInput struct {
	NewOwnerID uint `json:"newOwnerId" binding:"required"`
}

// RegisterPet godoc
// @Summary Register a pet for adoption
// @Description Creates a pet post owned by the authenticated user
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param pet body RegisterPetInput true "Pet Registration"
// @Success 201 {object} map[string]interface{} "Pet registered successfully"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/pets/register [post]
func (pc *PetController) RegisterPet(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input RegisterPetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pet := models.Pet{
		Name:         input.Name,
		Breed:        input.Breed,
		Age:          input.Age,
		Size:         input.Size,
		IsVaccinated: input.IsVaccinated,
		IsSterilized: input.IsSterilized,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		Location:     input.Location,
		OwnerID:      userID,
	}

	if err := pc.db.Create(&pet).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register pet"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Pet registered successfully",
		"pet":     pet,
	})
}

// GetPets godoc
// @Summary List pets available for adoption
// @Description Returns all pets that have not been adopted yet, newest first
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Pet
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/pets [get]
func (pc *PetController) GetPets(c *gin.Context) {
	var pets []models.Pet
	if err := pc.db.Where("is_adopted = ?", false).
		Order("created_at DESC").
		Preload("Owner").
		Find(&pets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pets"})
		return
	}

	c.JSON(http.StatusOK, pets)
}

// SetPetToAdopted godoc
// @Summary Mark a pet as adopted
// @Description Transfers the pet to its new owner. Idempotent when the pet was already transferred to the same owner by an accepted adoption request.
// @Tags pets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Param transfer body SetAdoptedInput true "New owner"
// @Success 200 {object} map[string]interface{} "Pet marked as adopted"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Pet not found"
// @Failure 409 {object} map[string]string "Pet already adopted"
// @Router /api/pets/setPetToAdopted/{id} [patch]
func (pc *PetController) SetPetToAdopted(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pet ID"})
		return
	}

	var input SetAdoptedInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pet, err := pc.adoption.AdoptDirect(c.Request.Context(), userID, uint(id), input.NewOwnerID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pet marked as adopted",
		"pet":     pet,
	})
}
