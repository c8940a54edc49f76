package config

const (
	PostsPath       = "/api/posts"
	PublicPostsPath = "/api/public/posts"
	AssetsPath      = "/api/assets"

	AssetUploadImagePath = AssetsPath + "/upload-image"
	AssetUploadHTMLPath  = AssetsPath + "/html"

	RequestAdminPath = "/api/request-admin"
)
