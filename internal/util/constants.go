package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const MimeJSON = "application/json"

// SystemActor 未开启认证时的默认操作人
const SystemActor = "system"

// 报表导出目录
const ReportPrefix = "reports/deliveries"
