// Package repository holds the gorm adapters behind the service ports.
package repository

import "edu_admin_backend/internal/service"

var (
	_ service.DefinitionRepository = (*DefinitionRepository)(nil)
	_ service.VersionRepository    = (*VersionRepository)(nil)
	_ service.QuestionRepository   = (*QuestionRepository)(nil)
	_ service.DeliveryRepository   = (*DeliveryRepository)(nil)
	_ service.DirectoryRepository  = (*DirectoryRepository)(nil)
)
