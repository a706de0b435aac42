package linking

import "hash/fnv"

// Sentence templates are selected by a stable hash of the article slug plus
// a per-slot salt, never a random source, so the same article always gets
// the same phrasing while different articles vary.

// homeTemplates carry the brand mention that becomes the homepage link.
var homeTemplates = []string{
	"Theo thông tin được {brand} tổng hợp, sự việc đang nhận được nhiều sự quan tâm của bạn đọc.",
	"Bạn đọc có thể theo dõi các tin tức mới được cập nhật liên tục tại {brand}.",
	"{brand} sẽ tiếp tục cập nhật những diễn biến mới nhất xoay quanh nội dung này.",
	"Những thông tin trên được {brand} tổng hợp từ các nguồn chính thống.",
	"Đội ngũ biên tập của {brand} chọn lọc và kiểm chứng tin tức trước khi đăng tải.",
}

// categoryTemplates carry the category mention that becomes the listing link.
var categoryTemplates = []string{
	"Xem thêm nhiều bài viết cùng chủ đề tại chuyên mục {category}.",
	"Đừng bỏ lỡ các tin tức mới nhất trong chuyên mục {category}.",
	"Chuyên mục {category} tổng hợp đầy đủ các diễn biến liên quan.",
	"Bạn đọc quan tâm có thể tìm đọc thêm tại chuyên mục {category}.",
}

// saltedHash is FNV-1a over slug plus slot salt.
func saltedHash(slug, salt string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(slug))
	h.Write([]byte("|"))
	h.Write([]byte(salt))
	return h.Sum32()
}

func pickTemplate(templates []string, slug, salt string) string {
	return templates[int(saltedHash(slug, salt))%len(templates)]
}
