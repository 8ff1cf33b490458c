package db

import (
	"database/sql"
	"fmt"

	"github.com/volunteerhub/volunteer-bot/apperr"
	"github.com/volunteerhub/volunteer-bot/models"
)

// AddProject создает новый проект и возвращает его ID
func (db *DB) AddProject(project *models.Project) (int64, error) {
	result, err := db.Exec(
		"INSERT INTO projects (name, description, responsible) VALUES (?, ?, ?)",
		project.Name, project.Description, project.Responsible,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании проекта: %w", err)
	}

	projectID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID нового проекта: %w", err)
	}

	return projectID, nil
}

// GetProjects получает все проекты
func (db *DB) GetProjects() ([]*models.Project, error) {
	rows, err := db.Query(
		"SELECT id, name, description, responsible, created_at FROM projects ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении проектов: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		project := &models.Project{}
		err := rows.Scan(
			&project.ID, &project.Name, &project.Description,
			&project.Responsible, &project.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании данных проекта: %w", err)
		}
		projects = append(projects, project)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по проектам: %w", err)
	}

	return projects, nil
}

// GetProjectByID получает проект по его ID
func (db *DB) GetProjectByID(projectID int64) (*models.Project, error) {
	project := &models.Project{}

	err := db.QueryRow(
		"SELECT id, name, description, responsible, created_at FROM projects WHERE id = ?",
		projectID,
	).Scan(&project.ID, &project.Name, &project.Description, &project.Responsible, &project.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении проекта: %w", err)
	}

	return project, nil
}

// DeleteProject удаляет проект
func (db *DB) DeleteProject(projectID int64) error {
	result, err := db.Exec("DELETE FROM projects WHERE id = ?", projectID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении проекта: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("Проект не найден")
	}
	return nil
}
