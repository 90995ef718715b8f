package model

import "time"

// 以下目录数据由外部系统维护，配信创建时只读取一次

// swagger:model DirectoryGroup
type DirectoryGroup struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string    `gorm:"size:255" json:"name"`
	MemberCount int       `gorm:"default:0" json:"memberCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (DirectoryGroup) TableName() string {
	return "directory_groups"
}

// swagger:model DirectoryCompany
type DirectoryCompany struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string    `gorm:"size:255" json:"name"`
	EmployeeCount int       `gorm:"default:0" json:"employeeCount"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (DirectoryCompany) TableName() string {
	return "directory_companies"
}

// swagger:model DirectoryUser
type DirectoryUser struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (DirectoryUser) TableName() string {
	return "directory_users"
}
